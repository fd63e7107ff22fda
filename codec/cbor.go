// Package codec encodes stored records with CBOR.
package codec

import "github.com/fxamacker/cbor/v2"

// encMode uses Core Deterministic Encoding: identical records always
// produce identical bytes.
var encMode cbor.EncMode

// decMode ignores unknown fields so older records stay readable.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
