package config

import (
	"fmt"
	"strings"
)

type Config struct {
	PagePath     string
	OutputPath   string
	Ticks        int
	FPS          int
	Workers      int
	Scale        int
	Preview      bool
	DumpPath     string
	MQTTBroker   string
	MQTTClientID string
	MQTTTopics   []string
	VideoEncoder string
	Quality      int
	ShowStats    bool
	BuildVersion string
}

// FrameParams описывает геометрию выходного кадра для приемников.
type FrameParams struct {
	Width, Height int
	Scale         int
	FPS           int
}

// OutputSize возвращает размер кадра после масштабирования.
func (p FrameParams) OutputSize() (int, int) {
	s := p.Scale
	if s < 1 {
		s = 1
	}
	return p.Width * s, p.Height * s
}

// Validate проверяет значения, пришедшие из флагов.
func (c *Config) Validate() error {
	if c.Ticks <= 0 {
		return fmt.Errorf("количество тиков должно быть положительным: %d", c.Ticks)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps должен быть положительным: %d", c.FPS)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("количество воркеров должно быть положительным: %d", c.Workers)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("масштаб должен быть положительным: %d", c.Scale)
	}
	if len(c.MQTTTopics) > 0 && c.MQTTBroker == "" {
		return fmt.Errorf("указаны MQTT топики, но не задан брокер")
	}
	return nil
}

// SplitList разбирает значение флага вида "a,b, c".
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
