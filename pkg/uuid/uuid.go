// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates time-ordered identifiers.

Values are UUID version 7 strings. They back modification tags and content
remote ids, so two values generated in sequence never compare equal.
*/
package uuid

import "github.com/google/uuid"

// New returns a new UUIDv7 string. It panics when the system entropy source
// fails, which is unrecoverable.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}
