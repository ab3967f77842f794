package storefront

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Envelope field names used by the remote backend
const (
	// DataField wraps the payload of every response
	DataField = "$data"
	// CountField holds the total record count under DataField
	CountField = "count"
	// ResultsField holds the page of records under DataField
	ResultsField = "results"
	// ErrorsField holds field validation errors under DataField
	ErrorsField = "errors"
)

// Document is an ordered, mutable JSON object.
// Values are nil, bool, Go integers, finite floats, json.Number, string,
// *Document or []any of those. Key insertion order is kept for serialization.
// A Document is not safe for concurrent mutation.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{values: make(map[string]any)}
}

// Put inserts or overwrites key and returns the document for chaining.
// Storing an unsupported value type is a programming error and panics.
func (d *Document) Put(key string, value any) *Document {
	v, err := normalizeValue(value)
	if err != nil {
		panic(fmt.Sprintf("storefront: document key %q: %v", key, err))
	}
	d.set(key, v)
	return d
}

func (d *Document) set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value for key, or nil when absent
func (d *Document) Get(key string) any {
	if d == nil {
		return nil
	}
	return d.values[key]
}

// Has reports whether key is present (including explicit null values)
func (d *Document) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.values[key]
	return ok
}

// Delete removes key from the document
func (d *Document) Delete(key string) {
	if d == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of keys
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// GetDocument returns the nested document at key, or nil
func (d *Document) GetDocument(key string) *Document {
	sub, _ := d.Get(key).(*Document)
	return sub
}

// GetArray returns the array at key, or nil
func (d *Document) GetArray(key string) []any {
	arr, _ := d.Get(key).([]any)
	return arr
}

// GetString returns the string at key
func (d *Document) GetString(key string) (string, bool) {
	s, ok := d.Get(key).(string)
	return s, ok
}

// GetBool returns the boolean at key
func (d *Document) GetBool(key string) (bool, bool) {
	b, ok := d.Get(key).(bool)
	return b, ok
}

// GetInt64 returns the integral number at key.
// Non-integral or out-of-range numbers report false.
func (d *Document) GetInt64(key string) (int64, bool) {
	return toInt64(d.Get(key))
}

// Lookup walks nested documents along path and returns the final value, or nil
func (d *Document) Lookup(path ...string) any {
	cur := d
	for i, key := range path {
		if i == len(path)-1 {
			return cur.Get(key)
		}
		cur = cur.GetDocument(key)
		if cur == nil {
			return nil
		}
	}
	return nil
}

// Merge copies every key of other into d, overwriting existing keys
func (d *Document) Merge(other *Document) *Document {
	if other == nil {
		return d
	}
	for _, k := range other.keys {
		d.set(k, cloneValue(other.values[k]))
	}
	return d
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	out := NewDocument()
	if d == nil {
		return out
	}
	out.keys = make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		out.set(k, cloneValue(d.values[k]))
	}
	return out
}

// Equal reports structural equality: same key set, same values, same nesting.
// Key order is ignored and numbers compare by their JSON text.
func (d *Document) Equal(other *Document) bool {
	if d.Len() != other.Len() {
		return false
	}
	for _, k := range d.Keys() {
		if !other.Has(k) {
			return false
		}
		if !valuesEqual(d.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// String serializes the document to compact JSON
func (d *Document) String() string {
	var b strings.Builder
	writeDocument(&b, d)
	return b.String()
}

// MarshalJSON implements json.Marshaler
func (d *Document) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(string(data))
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// MaxNestingDepth is the deepest object/array nesting ParseDocument accepts
const MaxNestingDepth = 10000

// errTooDeep reports input nested beyond MaxNestingDepth
var errTooDeep = fmt.Errorf("nesting deeper than %d levels", MaxNestingDepth)

// ParseDocument parses a JSON object. Nested objects become documents, arrays
// keep element order and numbers keep their textual form as json.Number.
// Any syntax error, trailing data, non-object top level or nesting beyond
// MaxNestingDepth is a KindMalformedResponse error.
func ParseDocument(s string) (*Document, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, malformed(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, malformed(errors.New("top-level value is not an object"))
	}
	doc, err := decodeObject(dec, 1)
	if err != nil {
		return nil, malformed(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed(errors.New("unexpected data after top-level object"))
	}
	return doc, nil
}

func malformed(err error) error {
	return NewError(KindMalformedResponse, "parse", "", err)
}

func decodeObject(dec *json.Decoder, depth int) (*Document, error) {
	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not string", tok)
		}
		val, err := decodeValue(dec, depth)
		if err != nil {
			return nil, err
		}
		doc.set(key, val)
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeArray(dec *json.Decoder, depth int) ([]any, error) {
	arr := make([]any, 0)
	for dec.More() {
		val, err := decodeValue(dec, depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// decodeValue reads one value found at nesting level depth
func decodeValue(dec *json.Decoder, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if t == '{' || t == '[' {
			if depth >= MaxNestingDepth {
				return nil, errTooDeep
			}
		}
		switch t {
		case '{':
			return decodeObject(dec, depth+1)
		case '[':
			return decodeArray(dec, depth+1)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string, bool, json.Number, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

// ---------------------------------------------------------------------------
// Value handling
// ---------------------------------------------------------------------------

func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case nil, bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v, nil
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, errors.New("non-finite number")
		}
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("non-finite number")
		}
		return v, nil
	case *Document:
		if v == nil {
			return nil, nil
		}
		return v, nil
	case []*Document:
		out := make([]any, len(v))
		for i, sub := range v {
			if sub != nil {
				out[i] = sub
			}
		}
		return out, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			n, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array index %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case *Document:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case *Document:
		bv, ok := b.(*Document)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		var sa, sb strings.Builder
		writeValue(&sa, a)
		writeValue(&sb, b)
		return sa.String() == sb.String()
	}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}
		return int64(f), true
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), uint64(v) <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	case float32:
		return toInt64(float64(v))
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

func writeDocument(b *strings.Builder, d *Document) {
	b.WriteByte('{')
	if d != nil {
		for i, k := range d.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			writeString(b, k)
			b.WriteByte(':')
			writeValue(b, d.values[k])
		}
	}
	b.WriteByte('}')
}

func writeValue(b *strings.Builder, value any) {
	switch v := value.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case string:
		writeString(b, v)
	case json.Number:
		b.WriteString(v.String())
	case int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int8:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int16:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint8:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint16:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint32:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(v, 10))
	case float32:
		writeFloat(b, float64(v), 32)
	case float64:
		writeFloat(b, v, 64)
	case *Document:
		writeDocument(b, v)
	case []any:
		b.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, elem)
		}
		b.WriteByte(']')
	default:
		// unreachable through Put; parsed values are always supported
		b.WriteString("null")
	}
}

// writeFloat formats like encoding/json: shortest representation, exponent
// form only for very small or very large magnitudes.
func writeFloat(b *strings.Builder, f float64, bits int) {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) || bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	s := strconv.FormatFloat(f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(s)
		if n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}
	b.WriteString(s)
}

const hexDigits = "0123456789abcdef"

func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				b.WriteString(`\"`)
			case '\\':
				b.WriteString(`\\`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			case '\b':
				b.WriteString(`\b`)
			case '\f':
				b.WriteString(`\f`)
			default:
				if c < 0x20 {
					b.WriteString(`\u00`)
					b.WriteByte(hexDigits[c>>4])
					b.WriteByte(hexDigits[c&0xF])
				} else {
					b.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			b.WriteString(`\ufffd`)
		case r == '\u2028' || r == '\u2029':
			// line separators would break single-line framing in some readers
			b.WriteString(`\u202`)
			b.WriteByte(hexDigits[r&0xF])
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
}
