package knowledge

const resumeExtractPrompt = `You are a résumé parser. Convert the document below into a JSON object with this exact structure:
{
  "identity": {
    "name": "<full name, required>",
    "email": "", "phone": "", "location": "",
    "linkedin": "", "github": "", "website": "",
    "summary": "<one or two sentence professional summary>"
  },
  "skills": ["<skill>", ...],
  "experience": [
    {
      "company": "", "role": "", "location": "",
      "start_date": "<YYYY-MM>", "end_date": "<YYYY-MM or empty if current>",
      "bullets": ["<one accomplishment per bullet, verbatim where possible>"],
      "technologies": ["<tech used in this role>"]
    }
  ],
  "projects": [{"name": "", "description": "", "technologies": [], "url": "", "start_date": "", "end_date": ""}],
  "education": [{"institution": "", "degree": "", "field": "", "start_date": "", "end_date": ""}],
  "achievements": ["<award, publication or measurable result>"],
  "certifications": [{"name": "", "issuer": "", "date": ""}],
  "leadership": [{"role": "", "organization": "", "description": "", "start_date": "", "end_date": ""}]
}

Rules:
- Dates are YYYY-MM. Use YYYY when only the year is known. Leave end_date empty for current positions.
- Keep every bullet as a separate string. Do not merge or summarize bullets.
- Use empty strings and empty arrays for missing data. Never invent facts.
Return ONLY the JSON object, no markdown, no explanation.`

const jdExtractPrompt = `You are a job posting parser. Convert the document below into a JSON object with this exact structure:
{
  "title": "<job title, required>",
  "company": "",
  "location": "",
  "level": "<one of: intern, junior, mid, senior, lead, staff, principal>",
  "employment_type": "<one of: full_time, part_time, contract, internship, freelance, temporary>",
  "summary": "<one or two sentences>",
  "requirements": ["<one hard requirement per item>"],
  "nice_to_haves": ["<one preferred qualification per item>"],
  "responsibilities": ["<one responsibility per item>"],
  "technologies": ["<languages, frameworks, tools named in the posting>"],
  "keywords": ["<domain keywords an ATS would match on>"]
}

Rules:
- Keep each requirement and responsibility as a separate string.
- Use empty strings and empty arrays for missing data. Never invent facts.
Return ONLY the JSON object, no markdown, no explanation.`

const introPrompt = `Write a first-person spoken self-introduction of about 120 words for a job interview.
It must sound natural when read aloud: no bullet points, no headings, no markdown.
Open with the name and current role, highlight two or three concrete accomplishments, and close with why this next role fits.
%s
Candidate profile (JSON):
%s

Return ONLY the introduction text.`
