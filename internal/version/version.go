package version

const DefaultBuildTag = "dev"

// BuildTag is the git tag at the time of build and is used to
// denote the binary's current version. This value is supplied
// as an ldflag at compile time.
var BuildTag = DefaultBuildTag
