package agents

import (
	"fmt"
	"strings"

	"github.com/scribeworks/scribe/internal/outline"
)

// Prompt construction. The pipeline authors Chinese long-form documents, so
// the instructions are written in Chinese; the JSON field names the models
// must emit stay English to match the decode schemas.

const plannerSystem = `你是一位资深的长文写作策划。你的任务是根据用户需求设计文章大纲。
只输出一个 JSON 对象，不要输出任何其他文字、解释或 Markdown 代码块。`

// BuildPlannerPrompt asks for a pure-JSON outline of 3–8 sections.
func BuildPlannerPrompt(requirement, document string) string {
	var b strings.Builder
	b.WriteString("请为以下写作需求设计文章大纲。\n\n【写作需求】\n")
	b.WriteString(requirement)
	if strings.TrimSpace(document) != "" {
		b.WriteString("\n\n【文档已有内容】\n")
		b.WriteString(truncateRunes(document, 2000))
	}
	b.WriteString(`

输出要求：只输出一个 JSON 对象，结构如下：
{
  "title": "文章标题",
  "theme": "主题",
  "audience": "目标读者",
  "style": "写作风格",
  "sections": [
    {
      "id": "section-1",
      "title": "章节标题",
      "level": 2,
      "description": "章节说明",
      "keyPoints": ["要点一", "要点二"],
      "estimatedParagraphs": 3
    }
  ],
  "totalParagraphs": 12
}
章节数量须在 3 到 8 个之间。`)
	return b.String()
}

const writerSystem = `你是一位严谨的长文撰稿人，按大纲逐章节写作，保持全文术语一致、风格统一。`

// BuildDraftPrompt asks for the section's markdown body only, no tools.
func BuildDraftPrompt(o *outline.Outline, idx int, memoryContext string) string {
	sec := o.Sections[idx]
	var b strings.Builder
	b.WriteString(outlineOverview(o, idx))
	b.WriteString(sectionBrief(sec))
	if memoryContext != "" {
		b.WriteString("\n" + memoryContext)
	}
	b.WriteString("\n【任务】\n只输出本章节的 Markdown 正文")
	if idx == 0 {
		b.WriteString("（作为第一个章节，请在最前面加上文章大标题）")
	}
	b.WriteString("，以章节标题开头，不要输出任何章节之外的内容，也不要调用任何工具。\n")
	return b.String()
}

// BuildWritePrompt drives the agentic tool-calling write of one section.
// When feedback is present this is a revision: the model must locate the
// section's boundary first and surgically replace only its paragraphs.
func BuildWritePrompt(o *outline.Outline, idx int, prior []SectionResult, feedback *SectionFeedback, memoryContext string) string {
	sec := o.Sections[idx]
	var b strings.Builder
	b.WriteString(outlineOverview(o, idx))
	b.WriteString(priorSections(prior))
	b.WriteString(sectionBrief(sec))
	if memoryContext != "" {
		b.WriteString("\n" + memoryContext)
	}

	if feedback != nil {
		b.WriteString("\n【修订意见】\n")
		for _, issue := range feedback.Issues {
			b.WriteString("- 问题：" + issue + "\n")
		}
		for _, s := range feedback.Suggestions {
			b.WriteString("- 建议：" + s + "\n")
		}
		b.WriteString(`
【任务】
请修订本章节：
1. 先调用 get_document_structure 定位本章节标题到下一章节标题之间的段落范围；
2. 用 select_paragraph 和 replace_selected_text 只替换该范围内的段落；
3. 严禁改写本章节之外的任何内容，严禁重写全文。
完成后不再调用工具。
`)
	} else {
		b.WriteString(`
【任务】
请撰写本章节并写入文档：
1. 如需了解上下文，先调用 get_document_text 或 get_document_structure；
2. 用 append_text 或 insert_after_paragraph 写入本章节内容，以章节标题开头；
3. 只写本章节，不要动其他章节。
完成后不再调用工具。
`)
	}
	return b.String()
}

const reviewerSystem = `你是一位专业的文章审稿人。只输出一个 JSON 对象，不要输出任何其他文字。`

// Review lenses.
const (
	LensBalanced = "balanced"
	LensCritical = "critical"
)

// BuildReviewPrompt asks one reviewer pass for structured feedback over the
// document snapshot.
func BuildReviewPrompt(doc string, o *outline.Outline, round int, focusSectionID, lens string) string {
	var b strings.Builder
	if lens == LensCritical {
		b.WriteString("请以最严格的标准审阅以下文章，优先找出逻辑漏洞、事实性问题和论证缺陷。\n")
	} else {
		b.WriteString("请全面、公允地审阅以下文章，兼顾内容质量与可读性。\n")
	}
	fmt.Fprintf(&b, "当前是第 %d 轮审阅。\n", round)
	if focusSectionID != "" {
		if i := o.SectionIndex(focusSectionID); i >= 0 {
			fmt.Fprintf(&b, "本轮只需审阅章节「%s」（id: %s）。\n", o.Sections[i].Title, focusSectionID)
		}
	}

	b.WriteString("\n【大纲章节】\n")
	for _, sec := range o.Sections {
		fmt.Fprintf(&b, "- %s（id: %s）\n", sec.Title, sec.ID)
	}
	b.WriteString("\n【文章全文】\n")
	b.WriteString(truncateRunes(doc, 12000))
	b.WriteString(`

输出要求：只输出一个 JSON 对象：
{
  "overallScore": 7,
  "sectionFeedback": [
    {"sectionId": "section-1", "issues": ["..."], "suggestions": ["..."], "needsRevision": false}
  ],
  "coherenceIssues": ["全文连贯性问题"],
  "globalSuggestions": ["全局建议"]
}
overallScore 取 1 到 10 的整数。`)
	return b.String()
}

const arbiterSystem = `你是审稿仲裁人。合并两份审稿意见时，在分歧处采信证据更充分、建议更可执行的一方。只输出一个 JSON 对象。`

// BuildArbiterPrompt merges two review JSON feedbacks into one.
func BuildArbiterPrompt(reviewJSON, criticJSON string) string {
	return fmt.Sprintf(`以下是同一篇文章的两份独立审稿意见，请合并为一份最终意见。
结构与输入相同（overallScore / sectionFeedback / coherenceIssues / globalSuggestions）。
在 needsRevision 等分歧处，采信证据更充分、更可执行的意见。

【审稿意见 A】
%s

【审稿意见 B】
%s

只输出合并后的 JSON 对象。`, reviewJSON, criticJSON)
}

const verifierSystem = `你是事实核查员。只能依据给出的章节原文判断，不允许引入任何外部知识。只输出一个 JSON 对象。`

// BuildVerifyPrompt checks that a section's key claims carry traceable
// anchors drawn from the section's own text.
func BuildVerifyPrompt(sec outline.Section, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请核查章节「%s」中的关键论断是否有可追溯的原文依据。\n", sec.Title)
	if len(sec.KeyPoints) > 0 {
		b.WriteString("\n【本章节应覆盖的要点】\n")
		for _, p := range sec.KeyPoints {
			b.WriteString("- " + p + "\n")
		}
	}
	b.WriteString("\n【章节原文（按段落编号）】\n")
	for i, para := range strings.Split(content, "\n\n") {
		fmt.Fprintf(&b, "[%d] %s\n", i, strings.TrimSpace(para))
	}
	b.WriteString(`
输出要求：只输出一个 JSON 对象：
{
  "verdict": "pass",
  "claims": [
    {"claim": "论断原文", "verdict": "pass", "evidenceIds": ["e1"], "sourceAnchors": ["2"], "reason": ""}
  ],
  "evidence": [
    {"id": "e1", "quote": "原文引文", "anchor": "2"}
  ]
}
sourceAnchors 必须是上面的段落编号；没有段落依据的论断必须判为 fail。`)
	return b.String()
}

// outlineOverview renders the full outline with the current section marked.
func outlineOverview(o *outline.Outline, current int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "【文章】%s\n主题：%s；读者：%s；风格：%s\n\n【大纲】\n", o.Title, o.Theme, o.Audience, o.Style)
	for i, sec := range o.Sections {
		marker := "  "
		if i == current {
			marker = "» "
		}
		fmt.Fprintf(&b, "%s%d. %s — %s\n", marker, i+1, sec.Title, sec.Description)
	}
	return b.String()
}

// priorSections renders earlier written sections: the two most recent in
// full, older ones truncated. This keeps the prompt roughly constant-size
// regardless of document length.
func priorSections(prior []SectionResult) string {
	if len(prior) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n【已完成章节】\n")
	for i, p := range prior {
		content := p.Content
		if i < len(prior)-2 {
			content = truncateRunes(content, 120)
		}
		fmt.Fprintf(&b, "——「%s」——\n%s\n", p.SectionTitle, content)
	}
	return b.String()
}

func sectionBrief(sec outline.Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n【当前章节】%s\n说明:%s\n", sec.Title, sec.Description)
	if len(sec.KeyPoints) > 0 {
		b.WriteString("要点:\n")
		for _, p := range sec.KeyPoints {
			b.WriteString("- " + p + "\n")
		}
	}
	if sec.EstimatedParagraphs > 0 {
		fmt.Fprintf(&b, "预计段落数:%d\n", sec.EstimatedParagraphs)
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
