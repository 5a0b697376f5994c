package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/tinydisplay/internal/binding"
	"github.com/ivlev/tinydisplay/internal/config"
	"github.com/ivlev/tinydisplay/internal/director"
	"github.com/ivlev/tinydisplay/internal/engine"
	"github.com/ivlev/tinydisplay/internal/system"
	"github.com/ivlev/tinydisplay/internal/video"
)

// BuildVersion задается при сборке через -ldflags.
var BuildVersion = "dev"

var videoExtensions = map[string]bool{".mp4": true, ".mkv": true, ".mov": true, ".webm": true}

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет
	for _, d := range []string{"input/pages", "output"} {
		os.MkdirAll(d, 0755)
	}

	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("[-] %v", err)
	}
}

// run разбирает args и выполняет проект. Ошибки возвращаются, отложенные
// Close и Disconnect выполняются до выхода.
func run(args []string) error {
	fs := flag.NewFlagSet("tinydisplay", flag.ContinueOnError)

	pagePtr := fs.String("page", "", "Путь к YAML-странице (по умолчанию: самый свежий файл в input/pages/)")
	outputPtr := fs.String("o", "", "Видео (.mp4, .mkv, .mov, .webm) или папка для PNG-кадров (если пусто, генерируется в output/)")
	previewPtr := fs.Bool("preview", false, "Показывать кадры в терминале вместо записи")
	ticksPtr := fs.Int("ticks", 300, "Количество тиков")
	fpsPtr := fs.Int("fps", 30, "FPS (один тик = один кадр)")
	workersPtr := fs.Int("workers", runtime.NumCPU(), "Потоки рендера")
	scalePtr := fs.Int("scale", 4, "Целочисленный масштаб пикселя дисплея")
	qualityPtr := fs.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	statsPtr := fs.Bool("stats", false, "Показать отчет о производительности")
	dumpPtr := fs.String("dump", "", "Сохранить таймлайны в YAML (путь или auto)")
	brokerPtr := fs.String("mqtt", "", "MQTT брокер, например tcp://localhost:1883")
	clientPtr := fs.String("mqtt-client", "tinydisplay", "MQTT client id")
	topicsPtr := fs.String("topics", "", "Привязки через запятую: topic[#field]=name")

	if err := fs.Parse(args); err != nil {
		return err
	}

	pagePath := *pagePtr
	if pagePath == "" {
		latest, err := system.FindLatestPage("input/pages")
		if err != nil {
			return fmt.Errorf("ошибка: %w. Положите YAML-страницу в input/pages/", err)
		}
		pagePath = latest
		fmt.Printf("[*] Выбрана страница: %s\n", pagePath)
	}

	outputPath := *outputPtr
	if outputPath == "" && !*previewPtr {
		baseName := filepath.Base(pagePath)
		nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
		cleanName := strings.ReplaceAll(nameOnly, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		outputPath = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
	}

	cfg := &config.Config{
		PagePath:     pagePath,
		OutputPath:   outputPath,
		Ticks:        *ticksPtr,
		FPS:          *fpsPtr,
		Workers:      *workersPtr,
		Scale:        *scalePtr,
		Preview:      *previewPtr,
		DumpPath:     *dumpPtr,
		MQTTBroker:   *brokerPtr,
		MQTTClientID: *clientPtr,
		MQTTTopics:   config.SplitList(*topicsPtr),
		Quality:      *qualityPtr,
		ShowStats:    *statsPtr,
		BuildVersion: BuildVersion,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	page, err := director.ReadPage(cfg.PagePath)
	if err != nil {
		return fmt.Errorf("ошибка чтения страницы: %w", err)
	}

	store := binding.NewStore()
	if cfg.MQTTBroker != "" {
		client := binding.NewClient(cfg.MQTTBroker, cfg.MQTTClientID)
		if err := client.Connect(); err != nil {
			return fmt.Errorf("ошибка подключения к MQTT: %w", err)
		}
		defer client.Disconnect()
		fmt.Printf("[*] Подключено к MQTT: %s\n", cfg.MQTTBroker)

		feed := binding.NewMQTT(client, store)
		for _, s := range cfg.MQTTTopics {
			topic, err := binding.ParseTopic(s)
			if err != nil {
				return fmt.Errorf("ошибка: %w", err)
			}
			if err := feed.Bind(topic); err != nil {
				return fmt.Errorf("ошибка подписки: %w", err)
			}
		}
	}

	stage, err := director.NewStage(page, director.Options{
		BaseDir: filepath.Dir(cfg.PagePath),
		Data:    store,
		Scale:   cfg.Scale,
	})
	if err != nil {
		return fmt.Errorf("ошибка подготовки страницы: %w", err)
	}
	defer stage.Close()

	if cfg.DumpPath != "" {
		if err := writeDump(stage, cfg.DumpPath); err != nil {
			log.Printf("[!] Не удалось сохранить таймлайны: %v", err)
		}
	}

	sink := newSink(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	project := engine.NewProject(cfg, stage, sink)
	if err := project.Run(ctx); err != nil {
		return fmt.Errorf("ошибка проекта: %w", err)
	}

	if cfg.Preview {
		fmt.Println("[+++] Успех!")
		return nil
	}
	fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputPath)
	return nil
}

func newSink(cfg *config.Config) video.FrameSink {
	if cfg.Preview {
		return &video.Terminal{Pace: true}
	}

	if !videoExtensions[strings.ToLower(filepath.Ext(cfg.OutputPath))] {
		fmt.Printf("[*] Кадры будут сохранены как PNG в %s\n", cfg.OutputPath)
		return video.NewPNGSequence(cfg.OutputPath)
	}

	encoderName, _ := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}
	cfg.VideoEncoder = encoderName

	if cfg.Quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			cfg.Quality = 75
		case "h264_nvenc":
			cfg.Quality = 28
		default:
			cfg.Quality = 23
		}
	}
	return video.NewFFmpegEncoder(cfg.OutputPath, cfg.VideoEncoder, cfg.Quality)
}

func writeDump(stage *director.Stage, path string) error {
	if path == "auto" {
		path = director.GenerateDumpPath("output")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := stage.WriteDump(f, 0); err != nil {
		return err
	}
	fmt.Printf("[*] Таймлайны сохранены: %s\n", path)
	return nil
}
