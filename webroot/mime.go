package webroot

import "path"

// mimeTypes maps file extensions to the Content-Type values served for them.
// The lookup is case-sensitive on the extension text.
var mimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
	".json": "application/json",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".zip":  "application/zip",
}

// MIMEType returns the Content-Type for a file name based on its extension,
// or application/octet-stream if the extension is unknown or missing.
func MIMEType(name string) string {
	if mt, ok := mimeTypes[path.Ext(name)]; ok {
		return mt
	}
	return "application/octet-stream"
}
