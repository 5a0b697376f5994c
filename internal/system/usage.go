package system

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Usage снимок загрузки системы для отчета о производительности.
type Usage struct {
	CPUs           int
	CPUPercent     float64
	MemUsedPercent float64
	MemTotal       uint64
	ProcessRSS     uint64
	Goroutines     int
}

// Snapshot собирает текущую загрузку. Ошибки отдельных счетчиков не
// прерывают сбор: недоступное значение остается нулевым.
func Snapshot() (Usage, error) {
	u := Usage{Goroutines: runtime.NumGoroutine()}
	var errs []error

	if n, err := cpu.Counts(true); err == nil {
		u.CPUs = n
	} else {
		errs = append(errs, err)
	}

	// interval 0 сравнивает с предыдущим вызовом
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		u.CPUPercent = pct[0]
	} else if err != nil {
		errs = append(errs, err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		u.MemUsedPercent = vm.UsedPercent
		u.MemTotal = vm.Total
	} else {
		errs = append(errs, err)
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			u.ProcessRSS = mi.RSS
		} else {
			errs = append(errs, err)
		}
	} else {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return u, fmt.Errorf("usage snapshot: %v", errs[0])
	}
	return u, nil
}

func (u Usage) String() string {
	return fmt.Sprintf("CPU: %d ядер, %.1f%% | RAM: %.1f%% из %s | RSS: %s | горутин: %d",
		u.CPUs, u.CPUPercent, u.MemUsedPercent, FormatBytes(u.MemTotal), FormatBytes(u.ProcessRSS), u.Goroutines)
}

// FormatBytes форматирует размер в двоичных единицах.
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
