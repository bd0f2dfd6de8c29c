package util

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Расширения, которых нет в системной mime-базе (или там другое имя).
var audioVideoExt = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

const octetStream = "application/octet-stream"

// SniffMIME определяет MIME по сигнатуре первых байт, без параметров.
func SniffMIME(b []byte) string {
	if len(b) == 0 {
		return octetStream
	}
	return stripParams(mimetype.Detect(b).String())
}

// "text/plain; charset=utf-8" -> "text/plain"
func stripParams(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}

// MIMEByName: MIME по расширению имени файла, "" если неизвестно.
func MIMEByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if m, ok := audioVideoExt[ext]; ok {
		return m
	}
	return stripParams(mime.TypeByExtension(ext))
}

// PickMIME берём явный MIME, затем по расширению, иначе детектим по байтам.
func PickMIME(explicit, filename string, head []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	if m := MIMEByName(filename); m != "" {
		return m
	}
	return SniffMIME(head)
}
