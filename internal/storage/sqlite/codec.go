package sqlite

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Payloads are stored as deterministic CBOR so equal documents produce equal
// bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("sqlite: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("sqlite: CBOR decoder initialization failed: " + err.Error())
	}
}

func encodePayload(p map[string]any) ([]byte, error) {
	if p == nil {
		p = map[string]any{}
	}
	return encMode.Marshal(p)
}

func decodePayload(b []byte) (map[string]any, error) {
	p := map[string]any{}
	if len(b) == 0 {
		return p, nil
	}
	if err := decMode.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return p, nil
}
