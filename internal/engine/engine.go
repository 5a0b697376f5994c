package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/tinydisplay/internal/config"
	"github.com/ivlev/tinydisplay/internal/coordination"
	"github.com/ivlev/tinydisplay/internal/director"
	"github.com/ivlev/tinydisplay/internal/renderer"
	"github.com/ivlev/tinydisplay/internal/system"
	"github.com/ivlev/tinydisplay/internal/video"
)

// Project drives a staged page through Config.Ticks ticks into a sink.
type Project struct {
	Config *config.Config
	Stage  *director.Stage
	Sink   video.FrameSink
	// Stats is filled by Run.
	Stats Stats
}

// Stats are the timings of one run.
type Stats struct {
	Frames   int
	Restaged int
	Retired  int
	Total    time.Duration
	Evaluate time.Duration
	Render   time.Duration
	Write    time.Duration
}

func NewProject(cfg *config.Config, stage *director.Stage, sink video.FrameSink) *Project {
	return &Project{Config: cfg, Stage: stage, Sink: sink}
}

// job is one tick: the coordinated frame and the widget snapshot it was
// evaluated against.
type job struct {
	frame   coordination.Frame
	widgets []*renderer.Widget
	img     *image.RGBA
}

// Run evaluates ticks in order on the calling goroutine, renders batches of
// frames in parallel and writes them to the sink in tick order. A sink
// returning video.ErrStopped ends the run without error.
func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()
	cfg := p.Config
	r := p.Stage.Renderer

	params := config.FrameParams{Width: r.Width, Height: r.Height, Scale: r.Scale, FPS: cfg.FPS}
	if err := p.Sink.Open(ctx, params); err != nil {
		return fmt.Errorf("ошибка открытия приемника кадров: %w", err)
	}

	w, h := params.OutputSize()
	fmt.Println("--- [TINYDISPLAY: TICK ENGINE] ---")
	fmt.Printf("[*] Дисплей: %dx%d | Выход: %dx%d @ %d FPS\n", r.Width, r.Height, w, h, cfg.FPS)
	fmt.Printf("[*] Виджетов: %d | Тиков: %d | Воркеров: %d\n", len(p.Stage.Widgets()), cfg.Ticks, cfg.Workers)
	fmt.Println("-----------------------------")

	runErr := p.loop(ctx)
	closeErr := p.Sink.Close()
	p.Stats.Total = time.Since(startTime)

	if errors.Is(runErr, video.ErrStopped) {
		fmt.Printf("[*] Остановлено пользователем на кадре %d\n", p.Stats.Frames)
		runErr = nil
	}
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("ошибка закрытия приемника кадров: %w", closeErr)
	}

	if cfg.ShowStats {
		p.report()
	}
	return nil
}

func (p *Project) loop(ctx context.Context) error {
	cfg := p.Config
	batch := max(cfg.Workers*2, 1)
	jobs := make([]job, 0, batch)

	for first := 0; first < cfg.Ticks; first += batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		last := min(first+batch, cfg.Ticks) - 1

		// 1. Последовательная оценка: хост-данные, рестейдж, координация
		evalStart := time.Now()
		jobs = jobs[:0]
		for tick := first; tick <= last; tick++ {
			changed, err := p.Stage.Restage()
			if err != nil {
				return fmt.Errorf("тик %d: %w", tick, err)
			}
			if len(changed) > 0 {
				p.Stats.Restaged += len(changed)
			}
			frame, err := p.Stage.Group.Evaluate(tick)
			if err != nil {
				return fmt.Errorf("тик %d: %w", tick, err)
			}
			for _, name := range frame.Fired {
				log.Printf("[*] Тик %d: сработал триггер %s", tick, name)
			}
			for _, name := range frame.Released {
				log.Printf("[*] Тик %d: барьер %s открыт", tick, name)
			}
			jobs = append(jobs, job{frame: frame, widgets: p.Stage.Widgets()})
		}
		p.Stats.Evaluate += time.Since(evalStart)

		// 2. Параллельный рендер пачки
		renderStart := time.Now()
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(cfg.Workers, 1))
		for i := range jobs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				jobs[i].img = p.Stage.Renderer.Render(jobs[i].frame, jobs[i].widgets)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			releaseAll(jobs)
			return err
		}
		p.Stats.Render += time.Since(renderStart)

		// 3. Запись в порядке тиков
		writeStart := time.Now()
		for i := range jobs {
			err := p.Sink.WriteFrame(jobs[i].frame.Tick, jobs[i].img)
			system.PutImage(jobs[i].img)
			jobs[i].img = nil
			if err != nil {
				releaseAll(jobs[i+1:])
				return err
			}
			p.Stats.Frames++
		}
		p.Stats.Write += time.Since(writeStart)

		n, err := p.Stage.Group.Retire(last)
		if err != nil {
			return fmt.Errorf("тик %d: %w", last, err)
		}
		p.Stats.Retired += n

		if cfg.ShowStats && p.Stats.Frames%(cfg.FPS*10) < batch {
			fmt.Printf("[>] Кадров: %d/%d\n", p.Stats.Frames, cfg.Ticks)
		}
	}
	return nil
}

func releaseAll(jobs []job) {
	for i := range jobs {
		system.PutImage(jobs[i].img)
		jobs[i].img = nil
	}
}

func (p *Project) report() {
	s := p.Stats
	cfg := p.Config
	fps := float64(s.Frames) / s.Total.Seconds()

	usage, err := system.Snapshot()
	if err != nil {
		log.Printf("[!] Неполные данные о загрузке: %v", err)
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Evaluation: %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Sink Write: %.2fs\n"+
			"Frames: %d | Restaged: %d | Retired: %d\n"+
			"Effective FPS: %.2f\n"+
			"%s\n"+
			"----------------------------\n",
		cfg.BuildVersion, s.Total.Seconds(), s.Evaluate.Seconds(), s.Render.Seconds(), s.Write.Seconds(),
		s.Frames, s.Restaged, s.Retired, fps, usage,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Page: %s | Frames: %d | Total: %.2fs | Eval: %.2fs | Render: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		cfg.BuildVersion,
		filepath.Base(cfg.PagePath),
		s.Frames,
		s.Total.Seconds(),
		s.Evaluate.Seconds(),
		s.Render.Seconds(),
		fps,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}
