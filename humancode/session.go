// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package humancode

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetSessionID opens a new verification session at the remote service. The
// nonce must not be reused across calls.
func (o *Service) GetSessionID(ctx context.Context, nonce string) (*SessionResult, error) {
	body, err := json.Marshal(sessionRequest{
		Timestamp: formatTimestamp(o.timestamp()),
		NonceStr:  nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return post[SessionResult](ctx, o, "get session id", SessionPath, body)
}
