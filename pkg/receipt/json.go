// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package receipt

import "encoding/json"

func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
