// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// ResolveGroup maps a group reference to a group index of p.
// A nil or NULL reference means the whole match (group 0). An integer
// reference is used as-is; the match reports out-of-range indexes.
// A text reference is a group name, NFC-normalized before lookup.
// Unknown names are logged and reported as ErrGroupNotFound.
func ResolveGroup(p *Pattern, ref *Arg, log *zap.Logger) (int, error) {
	if ref == nil || ref.Null {
		return 0, nil
	}
	switch ref.Type {
	case TypeInt, TypeReal:
		return int(ref.int()), nil
	}
	name := norm.NFC.String(string(ref.Bytes))
	idx := p.re.GroupIndex(name)
	if idx < 0 {
		if log != nil {
			log.Warn("capture group not found",
				zap.String("group", name),
				zap.String("engine", p.engine))
		}
		return -1, fmt.Errorf("%w: %q", ErrGroupNotFound, name)
	}
	return idx, nil
}
