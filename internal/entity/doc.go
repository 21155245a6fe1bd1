// Package entity holds the typed records that flow between the script editor,
// the entity managers, and the video generator.
//
// Characters and scenes are client-side records: their IDs are generated here
// at creation time and are only ever removed by explicit user action. A parsed
// script is an immutable snapshot produced wholesale by the backend parser.
// VideoSettings is always fully populated so every submission is well formed,
// and GenerationTask mirrors the backend's view of a video job.
package entity
