package constant

// Extractor Function Identifiers - global functions a Lua extractor script must define.
const (
	ExtractFn = "Extract"
	ResolveFn = "Resolve"
)

// ExtractorTemplate is a Go text/template for scaffolding new Lua extractor files.
const ExtractorTemplate = `{{ $divider := repeat "-" (plus (max (len .Hosts) (len .Name) (len .Author) 3) 12) }}{{ $divider }}
-- @name    {{ .Name }}
-- @hosts   {{ .Hosts }}
-- @author  {{ .Author }}
-- @license MIT
{{ $divider }}


---@alias format { id: string, url: string, type: "video"|"audio", ext: string, protocol: string|nil, bitrate: number|nil, codec: string|nil, width: number|nil, height: number|nil, fps: number|nil, filesize: number|nil }
---@alias media { type: "media", id: string, url: string, title: string, uploader: string|nil, duration: number|nil, thumbnails: table|nil, subtitles: table|nil, formats: format[] }
---@alias playlist { type: "playlist", id: string, url: string, title: string, entries: { id: string, url: string, title: string|nil }[] }


----- IMPORTS -----
--- END IMPORTS ---



----- MAIN -----

--- Extracts a media item or a playlist from the given URL.
-- @param url string URL to extract
-- @return media|playlist
function {{ .ExtractFn }}(url)
	return { type = "media", id = url, url = url, title = "", formats = {} }
end


--- Resolves a playlist entry into a full media item.
-- @param entry { id: string, url: string, title: string|nil }
-- @return media
function {{ .ResolveFn }}(entry)
	return {{ .ExtractFn }}(entry.url)
end

--- END MAIN ---




----- HELPERS -----
--- END HELPERS ---

-- ex: ts=4 sw=4 et filetype=lua
`
