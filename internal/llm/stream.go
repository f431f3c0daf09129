// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd005-llm-client R4 (streaming), R5 (token and reasoning tracking).
package llm

import (
	"context"
	"strings"

	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/petar-djukic/nb-coder/pkg/types"
)

// EventStream abstracts the Bedrock ConverseStream event stream for testing.
type EventStream interface {
	Events() <-chan brtypes.ConverseStreamOutput
	Close() error
	Err() error
}

// consumeStream reads events from a Bedrock ConverseStream, sends text
// tokens through the provided channel, and accumulates the full response.
// Reasoning deltas are accumulated on a side channel of the response and
// never forwarded as tokens. The token channel is closed when streaming
// completes or the context is cancelled.
//
// Implements: prd005-llm-client R4.1-R4.6, R5.1-R5.2.
func consumeStream(ctx context.Context, stream EventStream, tokenCh chan<- string) *types.StreamResponse {
	defer close(tokenCh)

	var text strings.Builder
	var reasoning strings.Builder
	response := &types.StreamResponse{}

	finish := func() *types.StreamResponse {
		response.FullText = text.String()
		response.Reasoning = reasoning.String()
		return response
	}

	events := stream.Events()
	for {
		select {
		case <-ctx.Done():
			// Context cancelled; return what we have so far.
			stream.Close()
			return finish()

		case event, ok := <-events:
			if !ok {
				// Channel closed; streaming complete.
				response.Err = stream.Err()
				return finish()
			}

			switch v := event.(type) {
			case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
				switch delta := v.Value.Delta.(type) {
				case *brtypes.ContentBlockDeltaMemberText:
					text.WriteString(delta.Value)
					select {
					case tokenCh <- delta.Value:
					case <-ctx.Done():
						stream.Close()
						return finish()
					}

				case *brtypes.ContentBlockDeltaMemberReasoningContent:
					if rt, ok := delta.Value.(*brtypes.ReasoningContentBlockDeltaMemberText); ok {
						reasoning.WriteString(rt.Value)
					}
				}

			case *brtypes.ConverseStreamOutputMemberMetadata:
				if v.Value.Usage != nil {
					if v.Value.Usage.InputTokens != nil {
						response.Usage.InputTokens = int(*v.Value.Usage.InputTokens)
					}
					if v.Value.Usage.OutputTokens != nil {
						response.Usage.OutputTokens = int(*v.Value.Usage.OutputTokens)
					}
				}
			}
		}
	}
}
