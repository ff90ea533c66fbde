// Package richtext renders the editor's structured document tree to HTML.
// The tree is a transient editing representation; the HTML string is what
// the entry store persists.
package richtext

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// ToHTML converts an editor document (JSON-encoded node tree) to HTML.
// Unknown node types render their children so newer editor extensions
// degrade instead of disappearing.
func ToHTML(doc json.RawMessage) string {
	if len(doc) == 0 {
		return ""
	}
	var root map[string]interface{}
	if err := json.Unmarshal(doc, &root); err != nil {
		return ""
	}
	return renderNode(root)
}

func renderNode(node map[string]interface{}) string {
	nodeType, _ := node["type"].(string)
	if nodeType == "" {
		return ""
	}

	switch nodeType {
	case "doc":
		return renderContent(node["content"])
	case "paragraph":
		content := renderContent(node["content"])
		return fmt.Sprintf("<p>%s</p>\n", content)
	case "heading":
		level := 1
		if attrs, ok := node["attrs"].(map[string]interface{}); ok {
			if lvl, ok := attrs["level"].(float64); ok {
				level = int(lvl)
			}
		}
		content := renderContent(node["content"])
		return fmt.Sprintf("<h%d>%s</h%d>\n", level, content, level)
	case "bulletList":
		content := renderContent(node["content"])
		return fmt.Sprintf("<ul>\n%s</ul>\n", content)
	case "orderedList":
		content := renderContent(node["content"])
		return fmt.Sprintf("<ol>\n%s</ol>\n", content)
	case "listItem":
		content := renderContent(node["content"])
		return fmt.Sprintf("<li>%s</li>\n", content)
	case "taskList":
		content := renderContent(node["content"])
		return fmt.Sprintf("<ul data-type=\"taskList\">\n%s</ul>\n", content)
	case "taskItem":
		checked := false
		if attrs, ok := node["attrs"].(map[string]interface{}); ok {
			checked, _ = attrs["checked"].(bool)
		}
		box := "<input type=\"checkbox\" disabled>"
		if checked {
			box = "<input type=\"checkbox\" checked disabled>"
		}
		content := renderContent(node["content"])
		return fmt.Sprintf("<li>%s%s</li>\n", box, content)
	case "blockquote":
		content := renderContent(node["content"])
		return fmt.Sprintf("<blockquote>\n%s</blockquote>\n", content)
	case "codeBlock":
		content := renderContent(node["content"])
		return fmt.Sprintf("<pre><code>%s</code></pre>\n", html.EscapeString(content))
	case "image":
		src := ""
		alt := ""
		if attrs, ok := node["attrs"].(map[string]interface{}); ok {
			src, _ = attrs["src"].(string)
			alt, _ = attrs["alt"].(string)
		}
		if src == "" {
			return ""
		}
		return fmt.Sprintf("<img src=\"%s\" alt=\"%s\">\n", html.EscapeString(src), html.EscapeString(alt))
	case "text":
		text, _ := node["text"].(string)
		marks, _ := node["marks"].([]interface{})
		return renderTextWithMarks(text, marks)
	case "hardBreak":
		return "<br>"
	case "table":
		content := renderContent(node["content"])
		return fmt.Sprintf("<table>\n%s</table>\n", content)
	case "tableRow":
		content := renderContent(node["content"])
		return fmt.Sprintf("<tr>\n%s</tr>\n", content)
	case "tableCell":
		content := renderContent(node["content"])
		return fmt.Sprintf("<td>%s</td>\n", content)
	case "tableHeader":
		content := renderContent(node["content"])
		return fmt.Sprintf("<th>%s</th>\n", content)
	case "horizontalRule":
		return "<hr>\n"
	default:
		return renderContent(node["content"])
	}
}

func renderContent(content interface{}) string {
	if content == nil {
		return ""
	}

	items, ok := content.([]interface{})
	if !ok {
		return ""
	}

	var result strings.Builder
	for _, item := range items {
		if node, ok := item.(map[string]interface{}); ok {
			result.WriteString(renderNode(node))
		}
	}
	return result.String()
}

func renderTextWithMarks(text string, marks []interface{}) string {
	if text == "" {
		return ""
	}

	htmlText := html.EscapeString(text)

	if len(marks) == 0 {
		return htmlText
	}

	// Apply marks from outside in
	for i := len(marks) - 1; i >= 0; i-- {
		mark, ok := marks[i].(map[string]interface{})
		if !ok {
			continue
		}
		markType, _ := mark["type"].(string)

		switch markType {
		case "bold":
			htmlText = fmt.Sprintf("<strong>%s</strong>", htmlText)
		case "italic":
			htmlText = fmt.Sprintf("<em>%s</em>", htmlText)
		case "code":
			htmlText = fmt.Sprintf("<code>%s</code>", htmlText)
		case "link":
			href := ""
			if attrs, ok := mark["attrs"].(map[string]interface{}); ok {
				if hrefVal, ok := attrs["href"].(string); ok {
					href = hrefVal
				}
			}
			htmlText = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), htmlText)
		case "strike":
			htmlText = fmt.Sprintf("<s>%s</s>", htmlText)
		case "underline":
			htmlText = fmt.Sprintf("<u>%s</u>", htmlText)
		}
	}

	return htmlText
}

// PlainText flattens a document tree to whitespace-separated text, used for
// search indexing.
func PlainText(doc json.RawMessage) string {
	if len(doc) == 0 {
		return ""
	}
	var root map[string]interface{}
	if err := json.Unmarshal(doc, &root); err != nil {
		return ""
	}
	var parts []string
	collectText(root, &parts)
	return strings.Join(parts, " ")
}

func collectText(node map[string]interface{}, parts *[]string) {
	if text, ok := node["text"].(string); ok && text != "" {
		*parts = append(*parts, text)
	}
	content, ok := node["content"].([]interface{})
	if !ok {
		return
	}
	for _, item := range content {
		if child, ok := item.(map[string]interface{}); ok {
			collectText(child, parts)
		}
	}
}

// StripTags removes HTML tags from stored content, used when the structured
// tree is not available (entries only persist the HTML string).
func StripTags(htmlContent string) string {
	var result strings.Builder
	inTag := false
	for _, r := range htmlContent {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			result.WriteRune(' ')
		case !inTag:
			result.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}
