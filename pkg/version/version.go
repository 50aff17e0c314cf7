package version

// Version is the version of changehook, set at link time with
// -ldflags "-X github.com/jenkins-x/changehook/pkg/version.Version=..."
var Version = "dev"
