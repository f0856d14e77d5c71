package bulk

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes operations as newline-delimited JSON in the given order.
// Each header is immediately followed by its payload and the output always
// ends with a newline.
func Encode(ops []Operation) ([]byte, error) {
	var buf bytes.Buffer
	for i, op := range ops {
		header, err := json.Marshal(op.Header())
		if err != nil {
			return nil, fmt.Errorf("encode header %d: %w", i, err)
		}
		buf.Write(header)
		buf.WriteByte('\n')

		payload, ok := op.Payload()
		if !ok {
			continue
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode body %d (%s %s): %w", i, op.Action(), op.ID(), err)
		}
		buf.Write(body)
		buf.WriteByte('\n')
	}
	return append(bytes.TrimSpace(buf.Bytes()), '\n'), nil
}
