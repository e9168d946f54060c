package server

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/padam/internal/pose"
)

// bones are the skeleton segments drawn over the stream.
var bones = [][2]pose.Joint{
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow}, {pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow}, {pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.LeftHip}, {pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee}, {pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee}, {pose.RightKnee, pose.RightAnkle},
	{pose.LeftAnkle, pose.LeftHeel}, {pose.LeftHeel, pose.LeftFootIndex},
	{pose.RightAnkle, pose.RightHeel}, {pose.RightHeel, pose.RightFootIndex},
}

var (
	boneColor  = color.RGBA{R: 0, G: 220, B: 120, A: 0}
	jointColor = color.RGBA{R: 255, G: 140, B: 0, A: 0}
	textColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

func toPixel(l pose.Landmark, width, height int) image.Point {
	return image.Pt(int(l.X*float64(width)), int(l.Y*float64(height)))
}

// DrawSkeleton draws the pose over frame in place. Joints below the
// visibility threshold and the bones touching them are skipped.
func DrawSkeleton(frame *gocv.Mat, s *pose.Sample, visibility float64) {
	if frame == nil || frame.Empty() || s == nil {
		return
	}
	w, h := frame.Cols(), frame.Rows()

	for _, b := range bones {
		a, c := s.At(b[0]), s.At(b[1])
		if a.Visibility < visibility || c.Visibility < visibility {
			continue
		}
		gocv.Line(frame, toPixel(a, w, h), toPixel(c, w, h), boneColor, 2)
	}
	for _, j := range pose.AllJoints() {
		l := s.At(j)
		if l.Visibility < visibility {
			continue
		}
		gocv.Circle(frame, toPixel(l, w, h), 3, jointColor, -1)
	}
}

// DrawLabel writes text in the top-left corner of frame.
func DrawLabel(frame *gocv.Mat, text string) {
	if frame == nil || frame.Empty() || text == "" {
		return
	}
	gocv.PutText(frame, text, image.Pt(10, 24), gocv.FontHersheySimplex, 0.7, textColor, 2)
}
