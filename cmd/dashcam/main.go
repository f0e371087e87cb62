// Dashcam is a rolling video recorder. It keeps the last N minutes of camera
// frames on disk and exports any recent window of them as a video on demand.
//
// Usage:
//
//	# Start recording with the admin API
//	dashcam run --config /etc/dashcam/config.yaml
//
//	# Export the last 5 minutes from a running recorder
//	dashcam export --minutes 5 --remote 127.0.0.1:8090
//
//	# Export from the frames on disk, without a running recorder
//	dashcam export --minutes 5
//
//	# List retained frames and past exports
//	dashcam frames
//	dashcam exports --format json
//
//	# Show version information
//	dashcam version
package main

func main() {
	Execute()
}
