package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-docedit-be/internal/config"
	"ai-docedit-be/internal/constant"
	"ai-docedit-be/internal/dto"
	"ai-docedit-be/internal/pkg/logger"
	internalWS "ai-docedit-be/internal/websocket"
	"ai-docedit-be/pkg/content/pipeline"
	"ai-docedit-be/pkg/content/router"
	"ai-docedit-be/pkg/correlation"
	"ai-docedit-be/pkg/document"
	"ai-docedit-be/pkg/editerr"
	"ai-docedit-be/pkg/llm"
	"ai-docedit-be/pkg/media"
	"ai-docedit-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-playground/validator/v10"
)

// requestState is the orchestration state machine for one request.
type requestState int

const (
	stateReceived requestState = iota
	stateAnalyzing
	stateGenerating
	stateApplying
	stateDone
	stateError
)

func (s requestState) String() string {
	switch s {
	case stateReceived:
		return "received"
	case stateAnalyzing:
		return "analyzing"
	case stateGenerating:
		return "generating"
	case stateApplying:
		return "applying"
	case stateDone:
		return "done"
	case stateError:
		return "error"
	default:
		return "unknown"
	}
}

// decision is the parsed output of the Analyzing stage.
type decision struct {
	Action           string `json:"action"`
	Target           string `json:"target"`
	RelativePosition string `json:"relative_position"`
	Description      string `json:"description"`
	StyleGuidelines  string `json:"style_guidelines"`
	NeedsMedia       bool   `json:"needs_media"`
}

// ToolDescriptor is one entry of the fixed tool dispatch table: how to name
// the tool on the wire and how to read its result back.
type ToolDescriptor struct {
	Name         string
	DecodeResult func(result interface{}) (string, error)
}

// EditorService orchestrates one editing request end to end: analyze the
// instruction, generate content, mutate the snapshot, report the result.
// It is the InboundHandler behind every websocket session.
type EditorService struct {
	provider llm.LLMProvider
	pipe     *pipeline.Pipeline
	registry *correlation.Registry

	pubSub       *gochannel.GoChannel
	archiveTopic string

	tools    map[string]ToolDescriptor
	validate *validator.Validate

	cfg       config.GenerationConfig
	logger    logger.ILogger
	genLogger *log.Logger
}

func NewEditorService(
	provider llm.LLMProvider,
	pipe *pipeline.Pipeline,
	registry *correlation.Registry,
	pubSub *gochannel.GoChannel,
	archiveTopic string,
	cfg config.GenerationConfig,
	log logger.ILogger,
	genLogger *log.Logger,
) *EditorService {
	s := &EditorService{
		provider:     provider,
		pipe:         pipe,
		registry:     registry,
		pubSub:       pubSub,
		archiveTopic: archiveTopic,
		validate:     validator.New(),
		cfg:          cfg,
		logger:       log,
		genLogger:    genLogger,
	}
	s.tools = map[string]ToolDescriptor{
		"select_target": {
			Name:         "select_target",
			DecodeResult: decodeSelectTarget,
		},
	}
	return s
}

func decodeSelectTarget(result interface{}) (string, error) {
	m, ok := result.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("select_target result is not an object")
	}
	id, _ := m["position_id"].(string)
	if id == "" {
		return "", fmt.Errorf("select_target result carries no position_id")
	}
	return id, nil
}

// HandleToolResponse runs on the session read loop; it only hands the result
// to whichever worker is waiting. Unknown or late correlation ids are
// dropped.
func (s *EditorService) HandleToolResponse(raw []byte) {
	var resp dto.ToolResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.logger.Warn("EditorService", "Undecodable tool response", map[string]interface{}{"error": err.Error()})
		return
	}
	if resp.CorrelationID == "" {
		return
	}
	if !s.registry.Resolve(resp.CorrelationID, resp.Result) {
		s.logger.Info("EditorService", "Discarded late tool response", map[string]interface{}{
			"correlation_id": resp.CorrelationID,
		})
	}
}

// HandleRequest drives the request state machine on a worker goroutine.
func (s *EditorService) HandleRequest(ctx context.Context, rc *internalWS.RequestContext, raw []byte) {
	state := stateReceived

	var req dto.EditRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.finish(rc, state, "", editerr.Wrap(editerr.KindValidation, err, "malformed request"))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.finish(rc, state, "", editerr.Wrap(editerr.KindValidation, err, "invalid request"))
		return
	}

	mediaMgr := media.NewManager(rc.Resources, s.provider, constant.CaptionPrompt, s.genLogger)
	for _, img := range req.Images {
		mediaMgr.StoreImage(ctx, img.Name, img.Content)
	}
	for _, doc := range req.Documents {
		mediaMgr.StoreDocument(doc.Name, doc.Content)
	}

	if req.DocumentStructure != "" {
		snap, err := document.Parse(req.DocumentStructure)
		if err != nil {
			s.finish(rc, state, "", editerr.Wrap(editerr.KindValidation, err, "document_structure does not parse"))
			return
		}
		rc.Session.ReplaceSnapshot(snap)
	}

	state = stateAnalyzing
	s.sendStatus(rc.Bridge, "Analyzing your request...")

	dec, err := s.analyze(ctx, rc.Session.Snapshot(), req.Text)
	if err != nil {
		s.finish(rc, state, "", err)
		return
	}
	if dec.Target == "" && !rc.Session.Snapshot().Empty() {
		// Analysis could not pin an element; ask the client to pick one.
		dec.Target, err = s.invokeTool(ctx, rc.Bridge, "select_target", map[string]interface{}{
			"reason": "The request does not identify a unique element.",
		})
		if err != nil {
			s.finish(rc, state, "", err)
			return
		}
	}

	var chunks []*store.Chunk
	if dec.Action != constant.ActionDelete {
		state = stateGenerating
		s.sendStatus(rc.Bridge, "Generating content...")

		chunks, err = s.generate(ctx, rc, mediaMgr, req.Text, dec)
		if err != nil {
			s.finish(rc, state, "", err)
			return
		}
		if chunks[0].IsPlaceholder() {
			rc.Chunks.MarkDiscarded(chunks[0].ID)
			s.finish(rc, state, "", editerr.New(editerr.KindGenerationFailure,
				"no sub-generator produced content for this request"))
			return
		}
	}

	if ctx.Err() != nil {
		return
	}

	state = stateApplying
	s.sendStatus(rc.Bridge, "Applying changes...")

	structure, err := s.apply(ctx, rc, dec, chunks)
	if err != nil {
		s.finish(rc, state, "", err)
		return
	}

	state = stateDone
	s.publishRevision(rc.Session, dec, chunks, structure)
	s.finish(rc, state, structure, nil)
}

// analyze classifies the instruction into one structural action.
func (s *EditorService) analyze(ctx context.Context, snap *document.Snapshot, text string) (*decision, error) {
	prompt := fmt.Sprintf(constant.AnalyzePrompt, snap.String(), text)

	reply, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, editerr.Wrap(editerr.KindUpstreamFailure, err, "analysis call failed")
	}

	dec, err := parseDecision(reply)
	if err != nil {
		return nil, editerr.Wrap(editerr.KindUpstreamFailure, err, "analysis reply unusable")
	}

	switch dec.Action {
	case constant.ActionInsert, constant.ActionDelete, constant.ActionEdit:
	default:
		return nil, editerr.New(editerr.KindValidation, "analysis produced unknown action %q", dec.Action)
	}
	if dec.StyleGuidelines == "" {
		dec.StyleGuidelines = constant.DefaultStyleGuidelines
	}
	return dec, nil
}

// parseDecision tolerates fences and prose around the JSON object.
func parseDecision(reply string) (*decision, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in analysis reply")
	}
	var dec decision
	if err := json.Unmarshal([]byte(reply[start:end+1]), &dec); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &dec, nil
}

// generate routes the request through the content pipeline and/or the media
// manager and returns the stored chunks.
func (s *EditorService) generate(ctx context.Context, rc *internalWS.RequestContext, mediaMgr *media.Manager, text string, dec *decision) ([]*store.Chunk, error) {
	rt := router.NewRouter(s.pipe, mediaMgr, rc.Chunks, s.genLogger)

	chunks, err := rt.Route(ctx, router.Request{
		Pipeline: pipeline.Request{
			Description:       dec.Description,
			StyleGuidelines:   dec.StyleGuidelines,
			PriorContext:      text,
			DocumentStructure: rc.Session.Snapshot().String(),
			DocumentExcerpts:  mediaMgr.Excerpts(),
			ImageCaptions:     mediaMgr.Captions(),
		},
		// Image requests are served by the media manager; the text
		// pipeline covers everything else.
		NeedsText:  (dec.Action == constant.ActionInsert || dec.Action == constant.ActionEdit) && !dec.NeedsMedia,
		NeedsMedia: dec.NeedsMedia,
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// apply performs the mutation under the session's single-writer lock. An
// ambiguous selector triggers one select_target round trip before giving up.
func (s *EditorService) apply(ctx context.Context, rc *internalWS.RequestContext, dec *decision, chunks []*store.Chunk) (string, error) {
	chunkID := ""
	if dec.Action != constant.ActionDelete && len(chunks) > 0 {
		chunkID = chunks[0].ID
		// Extra chunks from a mixed route are not applied this round.
		for _, c := range chunks[1:] {
			rc.Chunks.MarkDiscarded(c.ID)
		}
	}

	mutate := func(target string) (string, error) {
		var structure string
		err := rc.Session.WithMutationLock(func(current *document.Snapshot) (*document.Snapshot, error) {
			if current.Empty() && dec.Action == constant.ActionInsert {
				// First content of an empty document needs no anchor.
				chunk, ok := rc.Chunks.Get(chunkID)
				if !ok {
					return nil, editerr.New(editerr.KindInvalidActionParameters, "chunk %s not found", chunkID)
				}
				next, err := document.Parse(chunk.Content)
				if err != nil {
					return nil, editerr.Wrap(editerr.KindInvalidActionParameters, err, "chunk content does not parse")
				}
				rc.Chunks.MarkApplied(chunkID)
				structure = next.String()
				return next, nil
			}

			applier := document.NewApplier(rc.Chunks)
			next, err := applier.Apply(current, document.MutationRequest{
				Action:           dec.Action,
				Target:           target,
				ChunkID:          chunkID,
				RelativePosition: dec.RelativePosition,
			})
			if err != nil {
				return nil, err
			}
			structure = next.String()
			return next, nil
		})
		return structure, err
	}

	structure, err := mutate(dec.Target)
	if editerr.Is(err, editerr.KindAmbiguousTarget) {
		target, toolErr := s.invokeTool(ctx, rc.Bridge, "select_target", map[string]interface{}{
			"reason":   "Multiple elements match the requested target.",
			"selector": dec.Target,
		})
		if toolErr != nil {
			return "", toolErr
		}
		structure, err = mutate(target)
	}
	return structure, err
}

// invokeTool runs one correlated tool round trip over the bridge.
func (s *EditorService) invokeTool(ctx context.Context, bridge *internalWS.Bridge, name string, params map[string]interface{}) (string, error) {
	tool, ok := s.tools[name]
	if !ok {
		return "", editerr.New(editerr.KindInvalidActionParameters, "unknown tool %q", name)
	}

	pending := s.registry.Register()
	data, _ := json.Marshal(dto.ToolCallMessage{
		Type:          constant.MessageTypeToolCall,
		ToolName:      tool.Name,
		Parameters:    params,
		CorrelationID: pending.ID,
	})
	if !bridge.Enqueue(data) {
		s.registry.Cancel(pending.ID)
		return "", editerr.New(editerr.KindTimeout, "session closed before tool call could be sent")
	}

	result, err := s.registry.Await(ctx, pending)
	if err != nil {
		return "", err
	}
	return tool.DecodeResult(result)
}

// publishRevision hands the applied mutation to the archive topic. Failures
// only cost history, never the request.
func (s *EditorService) publishRevision(session *store.Session, dec *decision, chunks []*store.Chunk, structure string) {
	if s.pubSub == nil {
		return
	}

	chunkID := ""
	if len(chunks) > 0 {
		chunkID = chunks[0].ID
	}
	payload, _ := json.Marshal(dto.RevisionMessage{
		SessionID:  session.ID,
		UserID:     session.UserID,
		Action:     dec.Action,
		Target:     dec.Target,
		ChunkID:    chunkID,
		Structure:  structure,
		OccurredAt: time.Now(),
	})

	if err := s.pubSub.Publish(s.archiveTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Warn("EditorService", "Revision publish failed", map[string]interface{}{
			"session_id": session.ID, "error": err.Error(),
		})
	}
}

// finish emits the terminal result message for one request.
func (s *EditorService) finish(rc *internalWS.RequestContext, state requestState, structure string, err error) {
	result := dto.ResultMessage{Type: constant.MessageTypeResult}

	if err != nil {
		kind := editerr.KindOf(err)
		result.Status = "error"
		result.Kind = string(kind)
		result.Message = err.Error()
		s.logger.Warn("EditorService", "Request ended in error", map[string]interface{}{
			"session_id": rc.Session.ID, "state": state.String(), "kind": string(kind), "error": err.Error(),
		})
	} else {
		result.Status = "success"
		result.UpdatedStructure = structure
		s.logger.Info("EditorService", "Request completed", map[string]interface{}{
			"session_id": rc.Session.ID,
		})
	}

	data, _ := json.Marshal(result)
	rc.Bridge.Enqueue(data)
}

func (s *EditorService) sendStatus(bridge *internalWS.Bridge, text string) {
	data, _ := json.Marshal(dto.StatusMessage{Type: constant.MessageTypeStatus, Text: text})
	bridge.Enqueue(data)
}
