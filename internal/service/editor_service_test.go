package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-docedit-be/internal/config"
	"ai-docedit-be/internal/constant"
	"ai-docedit-be/internal/dto"
	"ai-docedit-be/internal/repository/memory"
	internalWS "ai-docedit-be/internal/websocket"
	"ai-docedit-be/pkg/content/evaluate"
	"ai-docedit-be/pkg/content/pipeline"
	"ai-docedit-be/pkg/content/validate"
	"ai-docedit-be/pkg/correlation"
	"ai-docedit-be/pkg/editerr"
	"ai-docedit-be/pkg/llm"
	"ai-docedit-be/pkg/store"

	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// scriptedProvider replays replies in call order across analysis, drafting
// and evaluation.
type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (s *scriptedProvider) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.replies) {
		return "", fmt.Errorf("unexpected model call %d", s.calls)
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func (s *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.Generate(ctx, history[len(history)-1].Content, opts...)
}

func newTestService(provider llm.LLMProvider, toolTimeout time.Duration) *EditorService {
	validator := validate.NewValidator(constant.AllowedTags, constant.ForbiddenTags)
	evaluator := evaluate.NewEvaluator(provider, constant.EvaluatorPrompt, constant.GenerationRules)
	pipe := pipeline.NewPipeline(provider, validator, evaluator, pipeline.Config{
		AcceptanceThreshold: 80,
		MaxAttempts:         3,
		ExcerptCharLimit:    4000,
		DraftPrompt:         constant.DraftPrompt,
		Rules:               constant.GenerationRules,
	}, nil)

	return NewEditorService(
		provider,
		pipe,
		correlation.NewRegistry(toolTimeout),
		nil, // no archive bus in unit tests
		"",
		config.GenerationConfig{AcceptanceThreshold: 80, MaxAttempts: 3},
		nopLogger{},
		nil,
	)
}

func newRequestContext() *internalWS.RequestContext {
	return &internalWS.RequestContext{
		Session:   store.NewSession("session-1", "user-1"),
		Bridge:    internalWS.NewBridge(64),
		Chunks:    memory.NewChunkRepository(),
		Resources: memory.NewResourceRepository(),
	}
}

func drain(t *testing.T, rc *internalWS.RequestContext, n int) [][]byte {
	t.Helper()
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		select {
		case msg := <-rc.Bridge.Queue():
			out = append(out, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d of %d", i+1, n)
		}
	}
	return out
}

func messageType(t *testing.T, raw []byte) string {
	t.Helper()
	var envelope dto.InboundEnvelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope.Type
}

func TestHandleRequestInsertFlow(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`{"action":"INSERT","target":"a","relative_position":"AFTER","description":"a paragraph about cats","style_guidelines":"plain","needs_media":false}`,
		`<p><span>Cats are great.</span></p>`,
		`{"score": 90, "deficiencies": []}`,
	}}
	svc := newTestService(provider, time.Second)
	rc := newRequestContext()

	raw, _ := json.Marshal(dto.EditRequest{
		Type:              "request",
		Text:              "add a paragraph about cats",
		DocumentStructure: `<p position_id="a"><span>hello</span></p>`,
	})
	svc.HandleRequest(context.Background(), rc, raw)

	msgs := drain(t, rc, 4)
	require.Equal(t, constant.MessageTypeStatus, messageType(t, msgs[0]))
	require.Equal(t, constant.MessageTypeStatus, messageType(t, msgs[1]))
	require.Equal(t, constant.MessageTypeStatus, messageType(t, msgs[2]))

	var result dto.ResultMessage
	require.NoError(t, json.Unmarshal(msgs[3], &result))
	require.Equal(t, "success", result.Status)
	require.Contains(t, result.UpdatedStructure, "Cats are great.")
	require.Contains(t, result.UpdatedStructure, "hello")

	// The session snapshot advanced too.
	require.Contains(t, rc.Session.Snapshot().String(), "Cats are great.")
}

func TestHandleRequestDeleteFlowSkipsGeneration(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`{"action":"DELETE","target":"a","relative_position":null,"description":null,"style_guidelines":"plain","needs_media":false}`,
	}}
	svc := newTestService(provider, time.Second)
	rc := newRequestContext()

	raw, _ := json.Marshal(dto.EditRequest{
		Type:              "request",
		Text:              "remove the greeting",
		DocumentStructure: `<p position_id="a"><span>hello</span></p><p position_id="b"><span>keep me</span></p>`,
	})
	svc.HandleRequest(context.Background(), rc, raw)

	// analyzing, applying, result: no generating status for DELETE
	msgs := drain(t, rc, 3)
	var result dto.ResultMessage
	require.NoError(t, json.Unmarshal(msgs[2], &result))
	require.Equal(t, "success", result.Status)
	require.NotContains(t, result.UpdatedStructure, "hello")
	require.Contains(t, result.UpdatedStructure, "keep me")
	require.Equal(t, 1, provider.calls, "DELETE must not call the generator")
}

func TestHandleRequestToolCallTimeout(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`{"action":"EDIT","target":null,"relative_position":null,"description":"rewrite it","style_guidelines":"plain","needs_media":false}`,
	}}
	svc := newTestService(provider, 50*time.Millisecond)
	rc := newRequestContext()

	raw, _ := json.Marshal(dto.EditRequest{
		Type:              "request",
		Text:              "rewrite something",
		DocumentStructure: `<p position_id="a"><span>hello</span></p>`,
	})
	svc.HandleRequest(context.Background(), rc, raw)

	msgs := drain(t, rc, 3)
	require.Equal(t, constant.MessageTypeStatus, messageType(t, msgs[0]))
	require.Equal(t, constant.MessageTypeToolCall, messageType(t, msgs[1]))

	var result dto.ResultMessage
	require.NoError(t, json.Unmarshal(msgs[2], &result))
	require.Equal(t, "error", result.Status)
	require.Equal(t, string(editerr.KindTimeout), result.Kind)
}

func TestHandleRequestToolCallRoundTrip(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`{"action":"EDIT","target":null,"relative_position":null,"description":"rewrite the greeting","style_guidelines":"plain","needs_media":false}`,
		`<p><span>Hi there!</span></p>`,
		`{"score": 95, "deficiencies": []}`,
	}}
	svc := newTestService(provider, 2*time.Second)
	rc := newRequestContext()

	raw, _ := json.Marshal(dto.EditRequest{
		Type:              "request",
		Text:              "rewrite the greeting",
		DocumentStructure: `<p position_id="a"><span>hello</span></p>`,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.HandleRequest(context.Background(), rc, raw)
	}()

	// status(analyzing), then the tool call we must answer
	msgs := drain(t, rc, 2)
	require.Equal(t, constant.MessageTypeToolCall, messageType(t, msgs[1]))

	var call dto.ToolCallMessage
	require.NoError(t, json.Unmarshal(msgs[1], &call))
	require.Equal(t, "select_target", call.ToolName)
	require.NotEmpty(t, call.CorrelationID)

	response, _ := json.Marshal(map[string]interface{}{
		"type":           "tool_response",
		"correlation_id": call.CorrelationID,
		"result":         map[string]interface{}{"position_id": "a"},
	})
	svc.HandleToolResponse(response)

	<-done

	// generating, applying, result
	rest := drain(t, rc, 3)
	var result dto.ResultMessage
	require.NoError(t, json.Unmarshal(rest[2], &result))
	require.Equal(t, "success", result.Status)
	require.Contains(t, result.UpdatedStructure, "Hi there!")
	require.False(t, strings.Contains(result.UpdatedStructure, "hello"))
}

func TestHandleToolResponseUnknownIDIsDropped(t *testing.T) {
	svc := newTestService(&scriptedProvider{}, time.Second)

	response, _ := json.Marshal(map[string]interface{}{
		"type":           "tool_response",
		"correlation_id": "no-such-correlation",
		"result":         map[string]interface{}{"position_id": "a"},
	})
	// Must not panic or block.
	svc.HandleToolResponse(response)
}

func TestHandleRequestRejectsEmptyText(t *testing.T) {
	svc := newTestService(&scriptedProvider{}, time.Second)
	rc := newRequestContext()

	raw := []byte(`{"type":"request","text":""}`)
	svc.HandleRequest(context.Background(), rc, raw)

	msgs := drain(t, rc, 1)
	var result dto.ResultMessage
	require.NoError(t, json.Unmarshal(msgs[0], &result))
	require.Equal(t, "error", result.Status)
	require.Equal(t, string(editerr.KindValidation), result.Kind)
}

func TestHandleRequestInsertImageFlow(t *testing.T) {
	// Call order: image caption first (uploads are stored before analysis),
	// then the analysis decision. No draft or evaluation calls: image
	// requests bypass the text pipeline entirely.
	provider := &scriptedProvider{replies: []string{
		`A group photo from the offsite.`,
		`{"action":"INSERT","target":"a","relative_position":"AFTER","description":"insert the uploaded photo","style_guidelines":"plain","needs_media":true}`,
	}}
	svc := newTestService(provider, time.Second)
	rc := newRequestContext()

	raw, _ := json.Marshal(dto.EditRequest{
		Type:              "request",
		Text:              "insert my uploaded photo after the intro",
		Images:            []dto.FilePayload{{Name: "offsite.jpg", Content: []byte{1, 2, 3}}},
		DocumentStructure: `<p position_id="a"><span>intro</span></p>`,
	})
	svc.HandleRequest(context.Background(), rc, raw)

	msgs := drain(t, rc, 4)
	var result dto.ResultMessage
	require.NoError(t, json.Unmarshal(msgs[3], &result))
	require.Equal(t, "success", result.Status)
	require.Contains(t, result.UpdatedStructure, "resource://")
	require.Contains(t, result.UpdatedStructure, "A group photo from the offsite.")
	require.Contains(t, result.UpdatedStructure, "intro")
	require.Equal(t, 2, provider.calls, "image insertion must not draft or evaluate")
}

func TestHandleRequestInsertIntoEmptyDocument(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`{"action":"INSERT","target":null,"relative_position":"AFTER","description":"an opening heading","style_guidelines":"plain","needs_media":false}`,
		`<h1><span>Welcome</span></h1>`,
		`{"score": 88, "deficiencies": []}`,
	}}
	svc := newTestService(provider, time.Second)
	rc := newRequestContext()

	raw, _ := json.Marshal(dto.EditRequest{Type: "request", Text: "start the document with a heading"})
	svc.HandleRequest(context.Background(), rc, raw)

	msgs := drain(t, rc, 4)
	var result dto.ResultMessage
	require.NoError(t, json.Unmarshal(msgs[3], &result))
	require.Equal(t, "success", result.Status)
	require.Contains(t, result.UpdatedStructure, "Welcome")
}
