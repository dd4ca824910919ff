// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package circular provides power-of-2 sizing helpers for ring buffers and
// reusable scratch arrays.
package circular
