// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
	openai "github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/AleutianDictate/pkg/config"
	"github.com/AleutianAI/AleutianDictate/pkg/logging"
)

// localAPIKeyPlaceholder is sent when no key file is configured. Local
// OpenAI-compatible servers (Ollama, llama.cpp) ignore the Authorization
// header but the client requires a token.
const localAPIKeyPlaceholder = "local"

// OpenAIProvider streams transcriptions from any OpenAI-compatible chat
// completion endpoint. The API key, when configured, lives in an mlocked
// enclave and is only decrypted for the duration of each request.
type OpenAIProvider struct {
	log      *logging.Logger
	cfg      config.ProviderConfig
	composer *Composer

	// key is nil when no key file is configured.
	key *memguard.Enclave
}

// NewOpenAIProvider creates a provider from config. The key file, if set,
// is read once at construction and sealed; the plaintext copy is wiped.
func NewOpenAIProvider(log *logging.Logger, cfg config.ProviderConfig) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrNotConfigured)
	}

	p := &OpenAIProvider{
		log:      log,
		cfg:      cfg,
		composer: NewComposer(),
	}

	if cfg.APIKeyFile != "" {
		data, err := os.ReadFile(cfg.APIKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read API key file %s: %w", cfg.APIKeyFile, err)
		}
		// NewEnclave wipes the source slice after sealing.
		p.key = memguard.NewEnclave(bytes.TrimSpace(data))
		log.Info("API key sealed in locked memory", "file", cfg.APIKeyFile)
	}

	return p, nil
}

// StreamTranscription sends the utterance and streams the model's tagged
// segment response to the callback chunk by chunk.
func (p *OpenAIProvider) StreamTranscription(ctx context.Context, req Request, callback StreamCallback) error {
	system, err := p.composer.Compose(req.Mode)
	if err != nil {
		return fmt.Errorf("compose instructions: %w", err)
	}

	client, err := p.newClient()
	if err != nil {
		return err
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
	}
	if req.CurrentSegments != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: req.CurrentSegments,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Utterance,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    p.cfg.Model,
		Messages: messages,
		Stream:   true,
	}
	if p.cfg.MaxTokens > 0 {
		chatReq.MaxCompletionTokens = p.cfg.MaxTokens
	}

	p.log.Debug("Starting transcription stream",
		"model", p.cfg.Model,
		"mode", string(req.Mode),
		"utterance_chars", len([]rune(req.Utterance)))

	stream, err := client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return fmt.Errorf("create completion stream: %w", err)
	}
	defer stream.Close()

	chunks := 0
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("receive stream chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		chunks++
		if err := callback(delta); err != nil {
			return fmt.Errorf("stream aborted by callback: %w", err)
		}
	}

	p.log.Debug("Transcription stream complete", "chunks", chunks)
	return nil
}

// newClient builds a client for one request, decrypting the key enclave
// only as long as it takes to copy the token into the client config.
func (p *OpenAIProvider) newClient() (*openai.Client, error) {
	token := localAPIKeyPlaceholder
	if p.key != nil {
		buf, err := p.key.Open()
		if err != nil {
			return nil, fmt.Errorf("open API key enclave: %w", err)
		}
		// buf.String() aliases the locked pages; copy before Destroy wipes them.
		token = string(buf.Bytes())
		buf.Destroy()
	}

	cfg := openai.DefaultConfig(token)
	if p.cfg.BaseURL != "" {
		cfg.BaseURL = p.cfg.BaseURL
	}
	return openai.NewClientWithConfig(cfg), nil
}
