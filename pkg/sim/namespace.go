package sim

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/lvarbridge/lvarbridge-go/pkg/wire"
)

// UnknownValue is what ReadValue returns for handles the namespace does not
// know, including variables that have not appeared yet.
const UnknownValue = 0.0

// Simulation errors.
var (
	ErrEmptyName         = errors.New("variable name is empty")
	ErrDuplicateName     = errors.New("duplicate variable name")
	ErrInvalidPeriod     = errors.New("waveform needs a positive period")
	ErrInvalidWaveform   = errors.New("unknown waveform")
	ErrTooManyVariables  = errors.New("too many variables")
	ErrUnknownVariable   = errors.New("unknown variable")
	ErrVariableNotActive = errors.New("variable has not appeared yet")
	ErrAppearOrder       = errors.New("variable appears before an earlier definition")
)

// Waveform selects how a variable's value evolves over frames.
type Waveform uint8

const (
	WaveConstant Waveform = iota
	WaveSine
	WaveRamp
	WaveSquare
)

var waveformNames = map[Waveform]string{
	WaveConstant: "constant",
	WaveSine:     "sine",
	WaveRamp:     "ramp",
	WaveSquare:   "square",
}

// String returns the lower-case waveform name.
func (w Waveform) String() string {
	if s, ok := waveformNames[w]; ok {
		return s
	}
	return fmt.Sprintf("Waveform(%d)", w)
}

// ParseWaveform parses a waveform name. The empty string means constant.
func ParseWaveform(s string) (Waveform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return WaveConstant, nil
	}
	for w, name := range waveformNames {
		if name == s {
			return w, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWaveform, s)
}

// Variable defines one simulated host variable.
type Variable struct {
	Name      string
	Waveform  Waveform
	Amplitude float64
	Offset    float64

	// Period is the waveform period in frames.
	Period uint32

	// AppearAfter is the frame from which the variable can be resolved.
	AppearAfter uint64
}

// Validate checks a single variable definition.
func (v Variable) Validate() error {
	if v.Name == "" {
		return ErrEmptyName
	}
	if _, ok := waveformNames[v.Waveform]; !ok {
		return fmt.Errorf("%s: %w", v.Name, ErrInvalidWaveform)
	}
	if v.Waveform != WaveConstant && v.Period == 0 {
		return fmt.Errorf("%s: %w", v.Name, ErrInvalidPeriod)
	}
	return nil
}

// valueAt evaluates the waveform at frame.
func (v Variable) valueAt(frame uint64) float64 {
	if v.Waveform == WaveConstant {
		return v.Offset
	}

	phase := float64(frame%uint64(v.Period)) / float64(v.Period)
	switch v.Waveform {
	case WaveSine:
		return v.Offset + v.Amplitude*math.Sin(2*math.Pi*phase)
	case WaveRamp:
		return v.Offset + v.Amplitude*phase
	case WaveSquare:
		if phase < 0.5 {
			return v.Offset + v.Amplitude
		}
		return v.Offset - v.Amplitude
	}
	return v.Offset
}

// Namespace is a simulated host variable namespace. Handle i refers to the
// i-th defined variable. A variable resolves once the frame counter reaches
// its AppearAfter.
//
// Namespace is safe for concurrent use.
type Namespace struct {
	mu    sync.RWMutex
	vars  []Variable
	index map[string]wire.Handle
	frame uint64
}

// NewNamespace creates a namespace from vars, in definition order. Handles
// must become resolvable as a contiguous prefix, so AppearAfter may not
// decrease along vars.
func NewNamespace(vars ...Variable) (*Namespace, error) {
	if len(vars) > wire.MaxHandle+1 {
		return nil, fmt.Errorf("%w: %d", ErrTooManyVariables, len(vars))
	}

	ns := &Namespace{
		vars:  make([]Variable, 0, len(vars)),
		index: make(map[string]wire.Handle, len(vars)),
	}
	for i, v := range vars {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := ns.index[v.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, v.Name)
		}
		if i > 0 && v.AppearAfter < vars[i-1].AppearAfter {
			return nil, fmt.Errorf("%w: %s at frame %d follows %s at frame %d",
				ErrAppearOrder, v.Name, v.AppearAfter, vars[i-1].Name, vars[i-1].AppearAfter)
		}
		ns.index[v.Name] = wire.Handle(len(ns.vars))
		ns.vars = append(ns.vars, v)
	}
	return ns, nil
}

// Advance moves the simulation one frame forward and returns the new frame.
func (n *Namespace) Advance() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.frame++
	return n.frame
}

// Frame returns the current frame counter.
func (n *Namespace) Frame() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.frame
}

// Len returns the number of defined variables, visible or not.
func (n *Namespace) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.vars)
}

// ResolveNameAt returns the name of the variable at h if it has appeared.
func (n *Namespace) ResolveNameAt(h wire.Handle) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if !n.activeLocked(h) {
		return "", false
	}
	return n.vars[h].Name, true
}

// ReadValue returns the current value at h, or UnknownValue.
func (n *Namespace) ReadValue(h wire.Handle) float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if !n.activeLocked(h) {
		return UnknownValue
	}
	return n.vars[h].valueAt(n.frame)
}

// Set pins a variable to a constant value.
func (n *Namespace) Set(name string, value float64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	h, ok := n.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	if !n.activeLocked(h) {
		return fmt.Errorf("%w: %s", ErrVariableNotActive, name)
	}

	v := &n.vars[h]
	v.Waveform = WaveConstant
	v.Offset = value
	return nil
}

func (n *Namespace) activeLocked(h wire.Handle) bool {
	return int(h) < len(n.vars) && n.vars[h].AppearAfter <= n.frame
}
