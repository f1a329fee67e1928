package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veilchat/sentinel/category"
	"github.com/veilchat/sentinel/lexicon"
)

func testDetector() *Detector {
	return New(lexicon.Default())
}

func TestDetectAllClean(t *testing.T) {
	assert := assert.New(t)
	d := testDetector()

	det := d.DetectAll("Nice weather today")
	assert.Empty(det.Categories)
	assert.Empty(det.Reasons)

	det = d.DetectAll("")
	assert.Empty(det.Categories)
}

func TestChildSafetyDetection(t *testing.T) {
	assert := assert.New(t)
	d := testDetector()

	cats := d.DetectChildSafety("Let's meet in person, don't tell your parents")
	assert.Contains(cats, category.ChildGrooming)

	det := d.DetectAll("Let's meet in person, don't tell your parents")
	assert.Contains(det.Categories, category.ChildGrooming)
	assert.True(category.AnyHighSeverity(det.Categories))
}

func TestSecurityThreatDetection(t *testing.T) {
	assert := assert.New(t)
	d := testDetector()

	assert.Contains(d.DetectSecurityThreats("asking how to make a bomb"), category.TerrorismContent)
	assert.Contains(d.DetectSecurityThreats("they all deserve to die"), category.ViolenceIncitement)
	assert.Contains(d.DetectSecurityThreats("I can sell you a gun, no paperwork"), category.WeaponTrafficking)
	assert.Empty(d.DetectSecurityThreats("the new album is the bomb"))
}

func TestExtremismDetection(t *testing.T) {
	assert := assert.New(t)
	d := testDetector()

	assert.True(d.DetectExtremism("they keep posting about the great replacement"))
	assert.False(d.DetectExtremism("we replaced the great old carpet"))
}

func TestStandardSeverityFamilies(t *testing.T) {
	assert := assert.New(t)
	d := testDetector()

	det := d.DetectAll("congratulations, click here to claim your prize")
	assert.Contains(det.Categories, category.Scam)
	assert.False(category.AnyHighSeverity(det.Categories))

	det = d.DetectAll("I just want to die, there is no reason to live")
	assert.Contains(det.Categories, category.SelfHarm)
}

// Detectors ignore strictness entirely: there is no configuration input, so
// the same text always yields the same categories. This pins that contract.
func TestDetectionIsCaseInsensitiveAndDeterministic(t *testing.T) {
	assert := assert.New(t)
	d := testDetector()

	a := d.DetectAll("DON'T TELL YOUR PARENTS, let's MEET IN PERSON")
	b := d.DetectAll("don't tell your parents, let's meet in person")
	assert.Equal(b.Categories, a.Categories)
	assert.NotEmpty(a.Categories)
}
