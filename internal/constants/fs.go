package constants

import "os"

const (
	// DefaultFilePermissions sets the default permissions for regular files: (rw-r--r--).
	// Owner: read and write;
	// Group: read;
	// Others: read.
	DefaultFilePermissions os.FileMode = 0o644

	// DefaultFolderPermissions sets the default permissions for regular folders: (rwxr-xr-x).
	// Owner: read, write, and execute;
	// Group: read and execute;
	// Others: read and execute.
	DefaultFolderPermissions os.FileMode = 0o755
)

// File extension constants.
const (
	ExtensionMP3  = ".mp3"
	ExtensionM4A  = ".m4a"
	ExtensionAAC  = ".aac"
	ExtensionOGG  = ".ogg"
	ExtensionOpus = ".opus"
	ExtensionFLAC = ".flac"
	ExtensionWAV  = ".wav"
	ExtensionMP4  = ".mp4"
	ExtensionJSON = ".json"
	ExtensionYAML = ".yaml"
	ExtensionPart = ".part"
)

// DefaultMediaExtension is used when neither the enclosure URL nor its MIME type names a format.
const DefaultMediaExtension = ExtensionMP3
