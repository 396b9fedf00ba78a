package filestore

import "path/filepath"

// SafeName reduces a client-supplied filename to its base name with only
// [A-Za-z0-9._-] kept, truncated to 100 bytes with the extension preserved.
func SafeName(filename string) string {
	filename = filepath.Base(filepath.ToSlash(filename))
	if filename == "." || filename == "/" {
		return "file"
	}

	out := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if allowedNameChar(c) {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "file"
	}
	if len(out) > 100 {
		ext := filepath.Ext(string(out))
		if len(ext) > 0 && len(ext) < 10 {
			out = append(out[:100-len(ext)], ext...)
		} else {
			out = out[:100]
		}
	}
	return string(out)
}

func allowedNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
