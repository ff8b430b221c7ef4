package desmo

// Version is the SDK release version sent in the session device descriptor.
const Version = "0.3.0"
