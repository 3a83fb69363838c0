package backup

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

// writeCSV emits one row per element of rows, columns in JSON field order. Every
// cell is quoted; nested objects and arrays are written as inline JSON and null
// becomes an empty cell.
func writeCSV(w io.Writer, rows any, zero any) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode rows")
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "split rows")
	}
	zeroRaw, err := json.Marshal(zero)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode header row")
	}
	header, _, err := objectFields(zeroRaw)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(w)
	writeRecord(out, header)
	for _, record := range records {
		keys, values, err := objectFields(record)
		if err != nil {
			return err
		}
		byKey := make(map[string]string, len(keys))
		for i, key := range keys {
			byKey[key] = cellValue(values[i])
		}
		cells := make([]string, len(header))
		for i, key := range header {
			cells[i] = byKey[key]
		}
		writeRecord(out, cells)
	}
	if err := out.Flush(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv")
	}
	return nil
}

// objectFields walks a JSON object and returns its keys in document order.
func objectFields(raw []byte) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "csv row is not an object")
	}
	var keys []string
	var values []json.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read csv key")
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read csv value")
		}
		keys = append(keys, key)
		values = append(values, value)
	}
	return keys, values, nil
}

func cellValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

func writeRecord(w *bufio.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteString("\r\n")
}
