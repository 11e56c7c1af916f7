package domain

// VideoResource is the name under which the configured video file is served.
const VideoResource = "video"
