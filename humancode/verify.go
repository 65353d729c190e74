// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package humancode

import (
	"context"
	"encoding/json"
	"fmt"
)

// Verify submits the verification code collected for sessionID. On success
// the id of the verified human is returned.
func (o *Service) Verify(ctx context.Context, sessionID, vCode, nonce string) (*VerifyResult, error) {
	body, err := json.Marshal(verifyRequest{
		SessionID: sessionID,
		VCode:     vCode,
		Timestamp: formatTimestamp(o.timestamp()),
		NonceStr:  nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return post[VerifyResult](ctx, o, "verify", VerifyPath, body)
}
