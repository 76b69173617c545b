package logger

import (
	"fmt"
	"runtime"
)

func memoryUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("%d MiB", m.Alloc/1024/1024)
}
