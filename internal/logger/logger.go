// Package logger — логирование с префиксом сервиса и асинхронной записью,
// чтобы вызовы шлюза и обработчики не ждали вывода. Уровень задаётся LOG_LEVEL.
package logger

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

const asyncBufferSize = 8192

// slowCallThreshold — при уровне info длительности логируются только для вызовов дольше порога.
const slowCallThreshold = 100 * time.Millisecond

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var (
	prefix   string
	logLevel = levelInfo
	ch       chan string
	once     sync.Once
)

func parseLevel(s string) level {
	switch s {
	case "debug", "trace":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func initWorker() {
	logLevel = parseLevel(os.Getenv("LOG_LEVEL"))
	ch = make(chan string, asyncBufferSize)
	go func() {
		for msg := range ch {
			log.Print(msg)
		}
	}()
}

func enqueue(l level, msg string) {
	once.Do(initWorker)
	if l < logLevel {
		return
	}
	select {
	case ch <- msg:
	default:
		// Буфер полон — сообщение теряется, вызывающий не блокируется
	}
}

// SetPrefix задаёт префикс для всех последующих логов (например "api").
func SetPrefix(p string) {
	prefix = p
}

// SetLevel переопределяет LOG_LEVEL (значение из конфига).
func SetLevel(s string) {
	once.Do(initWorker)
	logLevel = parseLevel(s)
}

func tag() string {
	if prefix == "" {
		return ""
	}
	return "[" + prefix + "] "
}

func Debugf(format string, v ...any) {
	enqueue(levelDebug, tag()+"DEBUG: "+fmt.Sprintf(format, v...))
}

func Info(v ...any) {
	enqueue(levelInfo, tag()+fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	enqueue(levelInfo, tag()+fmt.Sprintf(format, v...))
}

// Warnf — сбои, которые не влияют на результат операции (например, зеркалирование last_message).
func Warnf(format string, v ...any) {
	enqueue(levelWarn, tag()+"WARN: "+fmt.Sprintf(format, v...))
}

func Error(v ...any) {
	enqueue(levelError, tag()+"ERROR: "+fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	enqueue(levelError, tag()+"ERROR: "+fmt.Sprintf(format, v...))
}

// LogDuration логирует имя функции и время выполнения в миллисекундах.
// При уровне info пишутся только вызовы дольше slowCallThreshold; при debug — все.
func LogDuration(fn string, start time.Time) {
	elapsed := time.Since(start)
	if logLevel == levelDebug || elapsed >= slowCallThreshold {
		enqueue(levelInfo, fmt.Sprintf("%sfn=%s duration_ms=%d", tag(), fn, elapsed.Milliseconds()))
	}
}

// DeferLogDuration возвращает функцию для defer: defer logger.DeferLogDuration("post.GetAll", time.Now())().
func DeferLogDuration(fn string, start time.Time) func() {
	return func() { LogDuration(fn, start) }
}
