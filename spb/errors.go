package spb

import "errors"

// ErrInvalidPayload is returned when a payload cannot be decoded, or when an
// unrecognised compression algorithm token is encountered.
var ErrInvalidPayload = errors.New("spb: invalid payload")

// ErrInvalidTopic is returned when a topic string does not match the
// Sparkplug grammar.
var ErrInvalidTopic = errors.New("spb: invalid topic")
