// Package assets provides the print stylesheets injected into pages before
// they are captured.
//
// # Loader Architecture
//
//	StyleLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in styles)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader ships "capture" (hides floating calls to action, pins hero
// heights) and "plain" (color-exact printing only).
//
// AssetResolver is the loader used by the renderer. It tries the custom
// FilesystemLoader first and falls back to EmbeddedLoader when the style is
// not found, so a site can override one stylesheet and keep the others.
//
// # Directory Structure
//
//	{basePath}/
//	└── styles/
//	    └── {name}.css
//
// # Security
//
// Style names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
