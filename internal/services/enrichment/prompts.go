package enrichment

// ClassifySystemPrompt instructs the model to pick one category
const ClassifySystemPrompt = `You are a bookmark classification expert. Recommend one suitable category for the bookmark.

Rules:
1. Look at the title, description and page content
2. Prefer the closest existing category
3. Suggest a new category only when none of the existing ones fit
4. Keep category names short (one to three words)
5. Give a reason and a confidence between 0 and 1

Return JSON:
{
    "suggested_category": "Category",
    "confidence": 0.85,
    "reasoning": "why this category"
}`

// classifyPromptTemplate placeholders: title, url, description, page_content, categories
const classifyPromptTemplate = `Classify the following bookmark:

Title: {title}
URL: {url}
Description: {description}
Page excerpt: {page_content}

Existing categories: {categories}

Recommend the most suitable category.`

// SummarizeSystemPrompt instructs the model to summarize and tag a page
const SummarizeSystemPrompt = `You are a web content analyst. Analyze the page and write a summary.

Rules:
1. Write a concise summary of 50 to 150 words
2. Extract 3 to 5 key tags
3. Estimate the reading time in minutes

Return JSON:
{
    "summary": "page summary...",
    "tags": ["tag1", "tag2", "tag3"],
    "reading_time": 5
}`

// summarizePromptTemplate placeholders: title, url, description, content
const summarizePromptTemplate = `Analyze the following page and write a summary:

Title: {title}
URL: {url}
Description: {description}

Page content:
{content}

Produce the summary, tags and estimated reading time.`

const (
	classifyContentChars  = 2000
	summarizeContentChars = 3000

	noDescription     = "none"
	pageUnavailable   = "unavailable"
	noCategoriesYet   = "none yet"
	unknownTitle      = "unknown"
	unableToFetch     = "unable to fetch"
	noContentFallback = "no content"

	defaultConfidence = 0.5
)
