// Package codec serializes bus records for byte-oriented sinks.
package codec

import (
	"fmt"

	json "github.com/goccy/go-json"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

// Marshal encodes rec as a single JSON object without a trailing newline.
//
// Payloads and results are opaque to the bus, so a value that cannot be
// encoded is replaced by its %+v rendering instead of dropping the record.
func Marshal(rec cbus.Record) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err == nil {
		return b, nil
	}

	rec.Payload = stringify(rec.Payload)
	rec.Result = stringify(rec.Result)

	b, err = json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", rec.Kind, fmt.Errorf("%w: %w", berr.ErrSerializationFailed, err))
	}

	return b, nil
}

// Line encodes rec followed by a newline.
func Line(rec cbus.Record) ([]byte, error) {
	b, err := Marshal(rec)
	if err != nil {
		return nil, err
	}

	return append(b, '\n'), nil
}

func stringify(v any) any {
	if v == nil {
		return nil
	}

	if _, err := json.Marshal(v); err == nil {
		return v
	}

	return fmt.Sprintf("%+v", v)
}
