// Package capture provides display capture sources behind the
// orchestrator's capture capability: a GStreamer ximagesrc provider for
// real displays and a synthetic mock provider for development and tests.
//
// Sources follow a latest-frame pull model: frames are produced
// asynchronously into a single slot and LatestFrame hands out the most
// recent one without blocking. The render loop must never stall on
// capture.
package capture
