package data

import (
	"path"
	"strings"
)

// ContentType is the MIME type reported for an entry.
type ContentType string

const (
	ContentTypeTextPlain         ContentType = "text/plain"
	ContentTypeTextMarkdown      ContentType = "text/markdown"
	ContentTypeTextHTML          ContentType = "text/html"
	ContentTypeTextCSS           ContentType = "text/css"
	ContentTypeTextJavaScript    ContentType = "text/javascript"
	ContentTypeTextCSV           ContentType = "text/csv"
	ContentTypeImageJPEG         ContentType = "image/jpeg"
	ContentTypeImagePNG          ContentType = "image/png"
	ContentTypeImageGIF          ContentType = "image/gif"
	ContentTypeImageWebP         ContentType = "image/webp"
	ContentTypeImageSVGXML       ContentType = "image/svg+xml"
	ContentTypeAudioMpeg         ContentType = "audio/mpeg"
	ContentTypeAudioWAV          ContentType = "audio/wav"
	ContentTypeVideoMP4          ContentType = "video/mp4"
	ContentTypeVideoWebM         ContentType = "video/webm"
	ContentTypeApplicationPDF    ContentType = "application/pdf"
	ContentTypeApplicationZip    ContentType = "application/zip"
	ContentTypeApplicationGZip   ContentType = "application/gzip"
	ContentTypeApplicationXTar   ContentType = "application/x-tar"
	ContentTypeApplicationJSON   ContentType = "application/json"
	ContentTypeApplicationYAML   ContentType = "application/yaml"
	ContentTypeApplicationXML    ContentType = "application/xml"
	ContentTypeApplicationStream ContentType = "application/octet-stream"
	ContentTypeDirectory         ContentType = "application/x-directory"
)

// ExtensionToMIME maps file extensions to MIME types
var ExtensionToMIME = map[string]ContentType{
	".txt":  ContentTypeTextPlain,
	".log":  ContentTypeTextPlain,
	".md":   ContentTypeTextMarkdown,
	".html": ContentTypeTextHTML,
	".htm":  ContentTypeTextHTML,
	".css":  ContentTypeTextCSS,
	".js":   ContentTypeTextJavaScript,
	".csv":  ContentTypeTextCSV,
	".jpg":  ContentTypeImageJPEG,
	".jpeg": ContentTypeImageJPEG,
	".png":  ContentTypeImagePNG,
	".gif":  ContentTypeImageGIF,
	".webp": ContentTypeImageWebP,
	".svg":  ContentTypeImageSVGXML,
	".mp3":  ContentTypeAudioMpeg,
	".wav":  ContentTypeAudioWAV,
	".mp4":  ContentTypeVideoMP4,
	".webm": ContentTypeVideoWebM,
	".pdf":  ContentTypeApplicationPDF,
	".zip":  ContentTypeApplicationZip,
	".gz":   ContentTypeApplicationGZip,
	".tar":  ContentTypeApplicationXTar,
	".json": ContentTypeApplicationJSON,
	".yaml": ContentTypeApplicationYAML,
	".yml":  ContentTypeApplicationYAML,
	".xml":  ContentTypeApplicationXML,
}

// GetMIMEType returns the MIME type for the extension of name.
// Unknown extensions resolve to application/octet-stream.
func GetMIMEType(name string) ContentType {
	ext := strings.ToLower(path.Ext(name))
	if mimeType, exists := ExtensionToMIME[ext]; exists {
		return mimeType
	}

	return ContentTypeApplicationStream
}

// IsText reports whether the content type is human readable.
func (ct ContentType) IsText() bool {
	switch ct {
	case ContentTypeApplicationJSON, ContentTypeApplicationYAML, ContentTypeApplicationXML:
		return true
	}

	return strings.HasPrefix(string(ct), "text/")
}
