package enums

// ABCClass bands products by cumulative revenue contribution.
type ABCClass string

const (
	ABCClassA ABCClass = "A"
	ABCClassB ABCClass = "B"
	ABCClassC ABCClass = "C"
)

// XYZClass bands products by demand variability.
type XYZClass string

const (
	XYZClassX XYZClass = "X"
	XYZClassY XYZClass = "Y"
	XYZClassZ XYZClass = "Z"
)

// CustomerSegment is a fixed cohort bucket.
type CustomerSegment string

const (
	CustomerSegmentProspect  CustomerSegment = "prospect"
	CustomerSegmentLost      CustomerSegment = "lost"
	CustomerSegmentAtRisk    CustomerSegment = "at_risk"
	CustomerSegmentChampions CustomerSegment = "champions"
	CustomerSegmentLoyal     CustomerSegment = "loyal"
	CustomerSegmentNew       CustomerSegment = "new"
	CustomerSegmentRegular   CustomerSegment = "regular"
)
