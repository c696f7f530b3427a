// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build nonumeric

package numeric

import "github.com/bartekus/capprobe/internal/capability"

// Compiled is true when a numeric library is linked into the binary.
const Compiled = false

func register(*capability.Registry) {}
