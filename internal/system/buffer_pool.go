package system

import (
	"image"
	"sync"
)

// ImagePool предоставляет механизмы повторного использования кадров image.RGBA
// для снижения нагрузки на Garbage Collector (GC). Движок берет буфер на
// каждый тик и возвращает его после записи кадра в приемник.
type ImagePool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = &ImagePool{
	pools: make(map[string]*sync.Pool),
}

// GetImage возвращает экземпляр *image.RGBA из пула или создает новый,
// если в пуле нет подходящего по размеру объекта. Содержимое буфера
// не очищается.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// GetFrame возвращает очищенный (прозрачный) кадр из пула.
func GetFrame(rect image.Rectangle) *image.RGBA {
	img := globalPool.Get(rect)
	clear(img.Pix)
	return img
}

// PutImage возвращает экземпляр *image.RGBA в пул для повторного использования.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	key := rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(rect)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
