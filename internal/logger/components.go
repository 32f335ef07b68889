package logger

// Component names used with For.
const (
	ComponentDoorControl = "DoorControl"
	ComponentDispatcher  = "Dispatcher"
	ComponentIO          = "IO"
	ComponentBlinker     = "Blinker"
	ComponentControlLoop = "ControlLoop"
	ComponentConsole     = "Console"
	ComponentSettings    = "Settings"
	ComponentSimulator   = "Simulator"
)
