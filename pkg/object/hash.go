package object

import (
	"crypto/sha1"
	"fmt"
)

// HashBytes computes the raw SHA-1 digest of data and returns it as a
// lowercase hex-encoded ID.
func HashBytes(data []byte) ID {
	sum := sha1.Sum(data)
	return idFromRaw(sum[:])
}

// HashObject computes the SHA-1 of the envelope "type len\0payload". The
// envelope is part of the canonical serialization, so two payloads of
// different types never collide on an ID.
func HashObject(objType Type, payload []byte) ID {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", objType, len(payload))
	h.Write(payload)
	return idFromRaw(h.Sum(nil))
}

// IDOf returns the content identifier of an object: the digest of its
// canonical serialization.
func IDOf(o Object) ID {
	return HashObject(o.Type(), o.Encode())
}
