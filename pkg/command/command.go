package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// Parse errors.
var (
	ErrEmpty           = errors.New("empty command")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing handle argument")
	ErrInvalidArgument = errors.New("invalid handle argument")
)

// Kind identifies a command.
type Kind uint8

const (
	// KindClear drops every subscription.
	KindClear Kind = iota + 1

	// KindListVars runs discovery and always dumps the variable list.
	KindListVars

	// KindCheckVars runs discovery and dumps the list only if it grew.
	KindCheckVars

	// KindSubscribe subscribes to one handle.
	KindSubscribe

	// KindUnsubscribe unsubscribes from one handle.
	KindUnsubscribe
)

// Command keywords.
const (
	KeywordClear       = "CLEAR"
	KeywordListVars    = "LISTLVARS"
	KeywordCheckVars   = "CHECKLVARS"
	KeywordSubscribe   = "SUBSCRIBE"
	KeywordUnsubscribe = "UNSUBSCRIBE"
)

var keywords = map[string]Kind{
	KeywordClear:       KindClear,
	KeywordListVars:    KindListVars,
	KeywordCheckVars:   KindCheckVars,
	KeywordSubscribe:   KindSubscribe,
	KeywordUnsubscribe: KindUnsubscribe,
}

// String returns the command keyword.
func (k Kind) String() string {
	switch k {
	case KindClear:
		return KeywordClear
	case KindListVars:
		return KeywordListVars
	case KindCheckVars:
		return KeywordCheckVars
	case KindSubscribe:
		return KeywordSubscribe
	case KindUnsubscribe:
		return KeywordUnsubscribe
	default:
		return "UNKNOWN"
	}
}

// HasHandle reports whether commands of this kind carry a handle argument.
func (k Kind) HasHandle() bool {
	return k == KindSubscribe || k == KindUnsubscribe
}

// Command is a decoded request.
type Command struct {
	Kind Kind

	// Handle is set for KindSubscribe and KindUnsubscribe.
	Handle wire.Handle
}

// Clear returns a CLEAR command.
func Clear() Command { return Command{Kind: KindClear} }

// ListVars returns a LISTLVARS command.
func ListVars() Command { return Command{Kind: KindListVars} }

// CheckVars returns a CHECKLVARS command.
func CheckVars() Command { return Command{Kind: KindCheckVars} }

// Subscribe returns a SUBSCRIBE command for h.
func Subscribe(h wire.Handle) Command { return Command{Kind: KindSubscribe, Handle: h} }

// Unsubscribe returns an UNSUBSCRIBE command for h.
func Unsubscribe(h wire.Handle) Command { return Command{Kind: KindUnsubscribe, Handle: h} }

// String formats the command as request text.
func (c Command) String() string {
	if c.Kind.HasHandle() {
		return fmt.Sprintf("%s %d", c.Kind, c.Handle)
	}
	return c.Kind.String()
}

// Encode returns the command as a request area payload.
func (c Command) Encode() []byte {
	return wire.EncodeText(c.String(), wire.RequestAreaSize)
}

// Parse decodes a request area payload.
func Parse(raw []byte) (Command, error) {
	return ParseText(wire.DecodeText(raw))
}

// ParseText decodes request text.
func ParseText(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}

	kind, ok := keywords[fields[0]]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}

	if !kind.HasHandle() {
		return Command{Kind: kind}, nil
	}

	if len(fields) < 2 {
		return Command{}, fmt.Errorf("%s: %w", kind, ErrMissingArgument)
	}
	id, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return Command{}, fmt.Errorf("%s %q: %w", kind, fields[1], ErrInvalidArgument)
	}

	return Command{Kind: kind, Handle: wire.Handle(id)}, nil
}
