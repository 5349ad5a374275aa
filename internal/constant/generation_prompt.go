package constant

const (
	// GenerationRules is embedded in every draft prompt and mirrored by the
	// deterministic validator. Keep the two in sync when editing.
	GenerationRules = `1. Valid Structure: Ensure perfect HTML syntax with properly nested tags
2. Allowed Tags ONLY: p, span, u, ol, ul, li, table, tr, td, th, tbody, h1, h2, h3, h4, h5, h6
3. Forbidden Tags: NEVER use script, iframe, style, link, meta, head, body, html, div, em, br, i, b
4. Text Encapsulation: ALL visible text MUST be wrapped in <span> tags
5. Span Placement: Place <span> tags immediately inside block elements (p, h1-h6, li, td, th)
6. Root Element: Start with an appropriate block element (p, h1-h6, table, ul, ol)
7. Tables: Must contain <tbody>, use <th> for headers, <td> for data cells
8. Colors: Use HEX format only (#FF0000, #333333, etc.)
9. Styling: Use inline style attributes only - no external CSS`

	// DraftPrompt expects: rules, context, document structure, description,
	// style guidelines.
	DraftPrompt = `You are an expert HTML content generator for a document editor. Create a content fragment based on the provided information.

=== CONTENT GENERATION RULES ===
%s

=== CONTEXT INFORMATION ===
%s

=== DOCUMENT STRUCTURE ===
%s

=== GENERATION TASK ===
- Description: %s
- Style Guidelines: %s

CRITICAL INSTRUCTIONS:
1. Respond with ONLY the HTML fragment - no explanations, markdown fences, or code blocks
2. Start directly with the first HTML tag (e.g., <p>, <h1>)
3. Generate NEW, original content based on the description and guidelines
4. Ensure all text is properly wrapped in <span> tags within block elements
5. Apply styles using inline style attributes only

Generate the HTML content now:`

	// EvaluatorPrompt expects: description, style guidelines, fragment, rules.
	// The model must answer with a bare JSON object.
	EvaluatorPrompt = `You are an expert HTML content evaluator. The fragment below belongs to a document editor (like Google Docs), not a website.

TASK REQUIREMENTS:
- Description: %s
- Style Guidelines: %s

HTML CONTENT TO EVALUATE:
%s

RULES GIVEN TO THE GENERATOR:
%s

EVALUATION CRITERIA:
1. Task Fulfillment (40 points): Does the content match the description?
2. Style Compliance (30 points): Does it follow the style guidelines?
3. HTML Quality (20 points): Is the HTML well-formed and properly structured?
4. Content Quality (10 points): Is the content clear and well-written?

Respond with a JSON object:
{"score": <integer 0-100>, "deficiencies": ["<specific area for improvement>", ...]}`

	// AnalyzePrompt expects: document structure, user prompt. The model
	// classifies the request into one structural action.
	AnalyzePrompt = `You are the orchestrator of a document editing application. Translate the user's request into exactly one structural action.

### Current Document Structure
Each element carries a unique position_id attribute. This is your ONLY map of the document.

%s

### User Request
"%s"

Decide:
- action: "INSERT" to add new content, "DELETE" to remove an element, "EDIT" to replace an element's content
- target: the position_id of the anchor element (for INSERT) or of the element to delete/edit. If the user wants to append at the end, use the LAST element's position_id with relative_position "AFTER". Use null ONLY if no element can be determined.
- relative_position: "BEFORE" or "AFTER" (INSERT only, otherwise null)
- description: what content to generate (INSERT/EDIT only, otherwise null)
- style_guidelines: styling requirements extracted from the request, or a sensible default
- needs_media: true if the request involves image operations (upload, caption, search images)

Return ONLY a single valid JSON object:
{"action": "...", "target": "...", "relative_position": "...", "description": "...", "style_guidelines": "...", "needs_media": false}`

	// CaptionPrompt expects: filename, size in bytes. Caption generation is
	// metadata-only; raw pixels never reach the text model.
	CaptionPrompt = `Write a one-sentence caption for an uploaded image based on its metadata. Respond with the caption text only, no introductions.

Filename: %s
Size: %d bytes`

	// DefaultStyleGuidelines is used when the request carries no styling cues.
	DefaultStyleGuidelines = "Clean, professional styling with proper typography and spacing"
)
