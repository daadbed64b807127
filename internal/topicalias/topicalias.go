// Package topicalias implements the MQTT v5.0 topic-alias tables: a
// send-side table with LRU eviction (grounded on async_mqtt's
// topic_alias_send) and a receive-side table bounded by a locally
// advertised maximum.
package topicalias

import "container/list"

// Send tracks which topic strings the local side has mapped to which
// numeric alias when publishing, so repeated publishes to the same topic
// can send the alias instead of the full string. Max is the peer's
// advertised TopicAliasMaximum; Max==0 means aliasing is disabled.
type Send struct {
	max     uint16
	byAlias map[uint16]*entry
	byTopic map[string]*entry
	lru     *list.List // front = most recently used
	next    uint16     // next never-yet-assigned alias, 1-based
}

type entry struct {
	alias uint16
	topic string
	elem  *list.Element
}

// NewSend returns a Send table that will never assign an alias above max.
func NewSend(max uint16) *Send {
	return &Send{
		max:     max,
		byAlias: make(map[uint16]*entry),
		byTopic: make(map[string]*entry),
		lru:     list.New(),
		next:    1,
	}
}

// Resolve decides how to send a PUBLISH for topic: it returns the alias to
// use and, when sendTopic is true, the topic string the encoder must also
// include (alias newly assigned, or aliasing disabled/unavailable).
// Touching an existing mapping moves it to the front of the LRU order.
func (s *Send) Resolve(topic string) (alias uint16, sendTopic bool) {
	if s.max == 0 {
		return 0, true
	}
	if e, ok := s.byTopic[topic]; ok {
		s.lru.MoveToFront(e.elem)
		return e.alias, false
	}

	var a uint16
	if s.next <= s.max {
		a = s.next
		s.next++
	} else {
		victim := s.lru.Back()
		if victim == nil {
			return 0, true
		}
		ve := victim.Value.(*entry)
		a = ve.alias
		s.evict(ve)
	}

	e := &entry{alias: a, topic: topic}
	e.elem = s.lru.PushFront(e)
	s.byAlias[a] = e
	s.byTopic[topic] = e
	return a, true
}

func (s *Send) evict(e *entry) {
	s.lru.Remove(e.elem)
	delete(s.byAlias, e.alias)
	delete(s.byTopic, e.topic)
}

// Find returns the topic currently mapped to alias and touches it (moves
// it to the front of the LRU order), mirroring a lookup made as part of
// actually sending a packet.
func (s *Send) Find(alias uint16) (string, bool) {
	e, ok := s.byAlias[alias]
	if !ok {
		return "", false
	}
	s.lru.MoveToFront(e.elem)
	return e.topic, true
}

// Peek is Find without the LRU touch, for read-only inspection.
func (s *Send) Peek(alias uint16) (string, bool) {
	e, ok := s.byAlias[alias]
	if !ok {
		return "", false
	}
	return e.topic, true
}

// Reset drops every mapping, for use on a fresh CONNECT/CONNACK exchange.
func (s *Send) Reset() {
	s.byAlias = make(map[uint16]*entry)
	s.byTopic = make(map[string]*entry)
	s.lru = list.New()
	s.next = 1
}

// Recv is the receive-side counterpart: a simple bounded map from alias to
// topic, populated only by PUBLISH packets that carry both a topic name
// and an alias (MQTT-3.3.2-13).
type Recv struct {
	max   uint16
	table map[uint16]string
}

// NewRecv returns a Recv table that accepts aliases up to max (the value
// this side advertised in its own TopicAliasMaximum).
func NewRecv(max uint16) *Recv {
	return &Recv{max: max, table: make(map[uint16]string)}
}

// Register records topic as the mapping for alias. It fails if alias is 0
// or exceeds max (ErrAliasInvalid), matching MQTT-3.3.2-10 / -11.
func (r *Recv) Register(alias uint16, topic string) error {
	if alias == 0 || alias > r.max {
		return ErrAliasInvalid
	}
	r.table[alias] = topic
	return nil
}

// Resolve returns the topic previously registered for alias.
func (r *Recv) Resolve(alias uint16) (string, bool) {
	t, ok := r.table[alias]
	return t, ok
}

// Reset drops every mapping.
func (r *Recv) Reset() {
	r.table = make(map[uint16]string)
}
