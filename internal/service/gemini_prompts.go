package service

const scorePrompt = `You are a brand compliance reviewer with expertise in color theory, typography and composition.
Compare the attached design with the brand fingerprint below and rate how well it adheres to it.

Design context: %s
Scoring strictness: %s. Strict contexts penalise any deviation from the palette, typography or logo placement; lenient contexts tolerate stylistic variation as long as the brand stays recognisable.

Brand fingerprint:
%s

Return a compliance score between 0 and 100 and concise, actionable feedback.`

const fixesPrompt = `You are a brand compliance reviewer. Inspect the attached design against the brand fingerprint below and
propose concrete corrections that bring it closer to the brand.

Design context: %s
Scoring strictness: %s

Brand fingerprint:
%s

Each fix needs a short human readable description, a type (color, typography or layout) and machine applicable
details: the action to perform, the element it targets, the property to change and the new value.
Return an empty list if the design is already compliant.`

const applyFixesPrompt = `Edit the attached design so that it applies exactly the following corrections and nothing else.
Keep the composition, text content and imagery intact.

Brand fingerprint:
%s

Corrections:
%s

Return the corrected design as an image.`

const highlightPrompt = `The first image is an original design and the second image is a corrected version of it.
Return a copy of the corrected design where every region that differs from the original is outlined with a clearly
visible red box. Do not alter anything else.`

const analyzeBrandPrompt = `You are a brand strategist. Derive a brand fingerprint from the attached logo and the description below.

Brand description:
%s

List primary and secondary colors as hex codes, and describe the typography style, logo placement preferences and
overall design aesthetic.`

const conflictsPrompt = `You are a design systems consultant. Review the brand fingerprint below for contradictions or violations of
design best practice. Report style ambiguity or an excessive number of colors as "warning", and contrast or
accessibility problems as "critical". Return an empty list if there are no issues.

Brand fingerprint:
%s`

const tagAssetPrompt = `Classify the attached brand asset named %q as an icon, image or logo, give it up to ten short descriptive tags
and summarise it in one sentence.`

const extractColorsPrompt = `Extract the dominant colors of the attached image as hex codes, most prominent first, at most eight.
Then compare them with the brand palette below and say in two or three sentences whether they fit the brand.

Brand fingerprint:
%s`

const templatePrompt = `Design a blank, reusable %s template that follows the brand fingerprint below. Use the brand palette and
typography style, leave clear placeholder areas for a headline, body text and imagery, and do not include a logo.

Brand fingerprint:
%s`

const layoutPrompt = `Compose a finished, on-brand design from the content below. Apply the brand fingerprint to colors, typography
and composition. Omit any element that is left empty.

Brand fingerprint:
%s

Headline: %s
Body text: %s
Imagery: %s`

const promptDesignPrompt = `Create a design for the following request that strictly follows the brand fingerprint below.

Request:
%s

Brand fingerprint:
%s`

const assistantPrompt = `You are a brand assistant. Answer the question below using only the brand fingerprint as the source of
truth. Be specific and brief. If a design is attached, base your answer on it.

Brand fingerprint:
%s

Question:
%s`
