package book

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/zhouzirui/bookshelf/backend/internal/model/book"
)

// decodeUpdate reads a partial update. The body must be a JSON object naming at
// least one field; null, {} and non-object bodies are rejected.
func decodeUpdate(body io.Reader) (book.Input, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return book.Input{}, errors.New(msgInvalidBody)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return book.Input{}, errors.New(msgInvalidBody)
	}
	if len(fields) == 0 {
		return book.Input{}, errors.New(msgEmptyUpdate)
	}

	var in book.Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return book.Input{}, errors.New(msgInvalidBody)
	}
	if in.Empty() {
		return book.Input{}, errors.New(msgEmptyUpdate)
	}
	return in, nil
}
