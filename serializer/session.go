package serializer

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
)

// Frame is one entry on a session's stack: a value currently being serialized.
type Frame struct {
	// Name of the property, map key or root the value sits at. Empty for collection
	// items, which carry an Index instead.
	Name string
	// Position within the owning collection, or -1.
	Index int
	Value interface{}

	// Type the position declares. Object when nothing is declared.
	Expected *classmeta.ClassMeta
	// Runtime type of Value. Nil when the value was omitted.
	Actual *classmeta.ClassMeta
	// Type the value is finally written as, after delegates and swaps. Set by the
	// walker.
	Serialized *classmeta.ClassMeta
	// Delegate type the value was unwrapped from, if any.
	Wrapped *classmeta.ClassMeta

	Parent *Frame
	Depth  int

	identity identity
	tracked  bool
}

// Label is the frame's name, or "[index]" for collection items.
func (frame *Frame) Label() string {
	if frame.Name == "" && frame.Index >= 0 {
		return "[" + strconv.Itoa(frame.Index) + "]"
	}
	return frame.Name
}

// Path is the slash separated chain of labels from the root to the frame.
func (frame *Frame) Path() string {
	if frame == nil {
		return ""
	}
	labels := make([]string, frame.Depth)
	for current := frame; current != nil; current = current.Parent {
		labels[current.Depth-1] = current.Label()
	}
	return strings.Join(labels, "/")
}

// Identity of a mutable composite value. Two live values are the same object when all
// three fields match.
type identity struct {
	pointer uintptr
	typ     reflect.Type
	length  int
}

func identityOf(value interface{}) (identity, bool) {
	if value == nil {
		return identity{}, false
	}
	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Ptr, reflect.Map:
		if reflected.IsNil() {
			return identity{}, false
		}
		return identity{pointer: reflected.Pointer(), typ: reflected.Type()}, true
	case reflect.Slice:
		if reflected.Len() == 0 {
			return identity{}, false
		}
		return identity{
			pointer: reflected.Pointer(),
			typ:     reflected.Type(),
			length:  reflected.Len(),
		}, true
	}
	return identity{}, false
}

/*
Session holds the state of one serialization: the configuration, the type resolver and
the stack of frames from the root to the value being written.

Sessions track which composite values are on the stack so that cyclic graphs cannot
loop forever. A Session is not safe for concurrent use; create one per serialization.
*/
type Session struct {
	ID uuid.UUID

	config   Config
	resolver classmeta.Resolver
	logger   *zap.Logger

	stack   []*Frame
	active  map[identity]int
	omitted int
}

// NewSession creates a session. A nil logger is replaced with a no-op logger.
func NewSession(
	config Config, resolver classmeta.Resolver, logger *zap.Logger,
) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewV4()
	return &Session{
		ID:       id,
		config:   config,
		resolver: resolver,
		logger:   logger.With(zap.String("session", id.String())),
		active:   make(map[identity]int),
	}
}

func (session *Session) Config() Config {
	return session.config
}

func (session *Session) Resolver() classmeta.Resolver {
	return session.resolver
}

func (session *Session) Logger() *zap.Logger {
	return session.logger
}

// Omitted is the number of values replaced with null by RecursionOmit.
func (session *Session) Omitted() int {
	return session.omitted
}

// Depth is the number of frames on the stack.
func (session *Session) Depth() int {
	return len(session.stack)
}

// Current returns the top frame, or nil when the stack is empty.
func (session *Session) Current() *Frame {
	if len(session.stack) == 0 {
		return nil
	}
	return session.stack[len(session.stack)-1]
}

/*
Push places value on the stack and returns its runtime ClassMeta.

When value is already on the stack, or the frame exceeds the configured MaxDepth, the
configured RecursionPolicy applies: RecursionFail returns a spanerrors.RecursionError
naming the path, RecursionOmit returns a nil ClassMeta meaning the value must be written
as null.

A frame is pushed in every case, including errors. Each Push must be matched by exactly
one Pop.
*/
func (session *Session) Push(
	name string, value interface{}, expected *classmeta.ClassMeta,
) (*classmeta.ClassMeta, error) {
	return session.push(name, -1, value, expected)
}

func (session *Session) push(
	name string, index int, value interface{}, expected *classmeta.ClassMeta,
) (*classmeta.ClassMeta, error) {
	frame, reached, err := session.pushFrame(name, index, value, expected)
	if !reached {
		return nil, err
	}
	frame.Actual = session.resolver.ClassMetaForObject(value)
	return frame.Actual, nil
}

/*
PushMeta places a type on the stack for walks over type graphs rather than values.
Recursion is tracked per ClassMeta and meta is returned as the frame's runtime type
without consulting the resolver. The same recursion policy and Pop pairing as Push
apply.
*/
func (session *Session) PushMeta(
	name string, meta *classmeta.ClassMeta,
) (*classmeta.ClassMeta, error) {
	frame, reached, err := session.pushFrame(name, -1, meta, nil)
	if !reached {
		return nil, err
	}
	frame.Actual = meta
	return meta, nil
}

// pushFrame reports reached false when the recursion policy stopped the value.
func (session *Session) pushFrame(
	name string, index int, value interface{}, expected *classmeta.ClassMeta,
) (*Frame, bool, error) {
	if expected == nil {
		expected = session.resolver.Object()
	}

	parent := session.Current()
	frame := &Frame{
		Name:     name,
		Index:    index,
		Value:    value,
		Expected: expected,
		Parent:   parent,
		Depth:    len(session.stack) + 1,
	}
	session.stack = append(session.stack, frame)

	if session.config.MaxDepth > 0 && frame.Depth > session.config.MaxDepth {
		return frame, false, session.recursion(frame, "maximum depth of "+
			strconv.Itoa(session.config.MaxDepth)+" exceeded")
	}

	if id, ok := identityOf(value); ok {
		if session.active[id] > 0 {
			return frame, false, session.recursion(frame, "recursion detected")
		}
		session.active[id]++
		frame.identity = id
		frame.tracked = true
	}
	return frame, true, nil
}

func (session *Session) recursion(frame *Frame, reason string) error {
	path := frame.Path()
	if session.config.Recursion == RecursionOmit {
		session.omitted++
		session.logger.Warn(
			"value omitted",
			zap.String("reason", reason),
			zap.String("path", path),
		)
		return nil
	}

	return spanerrors.RecursionError.Newf("%v at %v", reason, path).
		WithPath(path).
		WithLocation(frame.Label(), frame.Expected.Name())
}

// Pop removes the top frame.
func (session *Session) Pop() {
	if len(session.stack) == 0 {
		return
	}
	frame := session.stack[len(session.stack)-1]
	session.stack[len(session.stack)-1] = nil
	session.stack = session.stack[:len(session.stack)-1]

	if frame.tracked {
		session.active[frame.identity]--
		if session.active[frame.identity] == 0 {
			delete(session.active, frame.identity)
		}
	}
}
