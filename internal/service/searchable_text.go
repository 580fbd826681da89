package service

import (
	"strings"

	"github.com/luminahq/lumina/internal/models"
)

const previewLength = 200

// BuildAssetSearchableText flattens an asset into the text embedded for
// asset-level search: name, filename, type, mime type, tags, and the summary
// of any extracted content. Image assets additionally fold in every vision
// analysis field so "warm sunset photo" style queries can match.
func BuildAssetSearchableText(asset *models.Asset) string {
	var parts []string

	add := func(label, value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	add("Name", asset.Name)
	add("Filename", asset.Filename)
	add("Type", string(asset.Type))
	add("MIME type", asset.MimeType)

	if len(asset.Tags) > 0 {
		add("Tags", strings.Join(asset.Tags, ", "))
	}

	if extracted := asset.Metadata.ExtractedContent; extracted != nil {
		switch {
		case extracted.CSV != nil:
			add("Content", extracted.CSV.Summary)
		case extracted.PDF != nil:
			add("Language", extracted.PDF.Language)
			add("Content", truncate(extracted.PDF.Text, 2000))
		}
	}

	if image := asset.Metadata.Image; image != nil {
		add("Description", image.Description)
		add("Objects", strings.Join(image.Objects, ", "))
		add("Colors", strings.Join(image.Colors, ", "))
		add("Text in image", image.OCRText)
		add("Themes", strings.Join(image.Themes, ", "))
		add("Mood", image.Mood)
		add("Style", image.Style)
		add("Categories", strings.Join(image.Categories, ", "))
		add("Composition", image.Composition)
		add("Lighting", image.Lighting)
		add("Setting", image.Setting)
	}

	return strings.Join(parts, "\n")
}

// BuildChunkSearchableText combines a chunk's content with its own context
// (title, section, keywords) and the parent asset's name and tags, so chunk
// matches still surface on asset-level vocabulary.
func BuildChunkSearchableText(chunk *models.Chunk, parent *models.Asset) string {
	var parts []string

	if chunk.Metadata.Title != "" {
		parts = append(parts, chunk.Metadata.Title)
	}

	if chunk.Metadata.Section != "" && chunk.Metadata.Section != chunk.Metadata.Title {
		parts = append(parts, "Section: "+chunk.Metadata.Section)
	}

	parts = append(parts, chunk.Content)

	if len(chunk.Metadata.Keywords) > 0 {
		parts = append(parts, "Keywords: "+strings.Join(chunk.Metadata.Keywords, ", "))
	}

	if parent != nil {
		if parent.Name != "" {
			parts = append(parts, "Document: "+parent.Name)
		}

		if len(parent.Tags) > 0 {
			parts = append(parts, "Tags: "+strings.Join(parent.Tags, ", "))
		}
	}

	return strings.Join(parts, "\n")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
