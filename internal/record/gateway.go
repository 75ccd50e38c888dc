package record

import (
	"context"
	"errors"
	"fmt"
)

// Коллекции удалённого хранилища.
const (
	CollectionPost             = "post"
	CollectionChat             = "chat"
	CollectionMessage          = "message"
	CollectionNotification     = "app_Notification"
	CollectionChannel          = "channel"
	CollectionUser             = "app_User"
	CollectionSettings         = "settings"
	CollectionPushSubscription = "push_subscription"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrTransport — сбой вызова хранилища или ответ success:false.
	ErrTransport = errors.New("record store failure")
)

// Error — сбой операции шлюза с сообщением сервера.
type Error struct {
	Op         string
	Collection string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("record %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("record %s %s: %s", e.Op, e.Collection, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// TransportError строит ошибку шлюза; cause может быть nil (ответ success:false).
func TransportError(op, collection, message string, cause error) *Error {
	err := ErrTransport
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrTransport, cause)
		if message == "" {
			message = cause.Error()
		}
	}
	return &Error{Op: op, Collection: collection, Message: message, Err: err}
}

// NotFound оборачивает ErrNotFound с указанием коллекции и id.
func NotFound(collection string, id int64) error {
	return fmt.Errorf("%s %d: %w", collection, id, ErrNotFound)
}

type WriteKind int

const (
	Create WriteKind = iota
	Update
	Delete
)

func (k WriteKind) String() string {
	switch k {
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// FieldError — ошибка валидации конкретного поля записи.
type FieldError struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

// Outcome — результат записи одной записи из пакета.
type Outcome struct {
	Success bool         `json:"success"`
	Record  Record       `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Gateway — единый контракт к хранилищу записей для одной коллекции за вызов.
//
// List возвращает пустой срез (не ошибку), если записей нет. GetByID возвращает ErrNotFound.
// Write не повторяет запросы и отдаёт по одному Outcome на каждую входную запись в том же порядке;
// частичный успех пакета возможен.
type Gateway interface {
	List(ctx context.Context, collection string, q Query) ([]Record, error)
	GetByID(ctx context.Context, collection string, id int64, fields []Field) (Record, error)
	Write(ctx context.Context, collection string, kind WriteKind, records []Record) ([]Outcome, error)
}

type freshKey struct{}

// Fresh помечает чтение перед записью (read-modify-write): кэши пропускают его к хранилищу.
func Fresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

func IsFresh(ctx context.Context) bool {
	v, _ := ctx.Value(freshKey{}).(bool)
	return v
}
