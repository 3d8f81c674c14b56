package db

// Uniqueness constraints back every insert-or-get operation in the
// pipeline: normalized_texts and event_memberships are unique per source
// item, claims per (event, text, type), assertions per (claim, source item).
const schema = `
CREATE TABLE IF NOT EXISTS source_items (
    id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    url            TEXT NOT NULL,
    canonical_url  TEXT,
    title          TEXT,
    publisher      VARCHAR(255),
    published_at   TIMESTAMPTZ,
    discovered_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    fetch_headers  JSONB,
    content_type   VARCHAR(255),
    language       VARCHAR(32),
    capture_tier   INTEGER NOT NULL DEFAULT 1,
    capture_status VARCHAR(64),
    is_significant BOOLEAN,
    is_filtered    BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_source_items_url ON source_items(url);
CREATE INDEX IF NOT EXISTS idx_source_items_discovered_at ON source_items(discovered_at);
CREATE INDEX IF NOT EXISTS idx_source_items_capture_status ON source_items(capture_status);

CREATE TABLE IF NOT EXISTS artifacts (
    id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    source_item_id UUID NOT NULL REFERENCES source_items(id),
    type           VARCHAR(32) NOT NULL,
    storage_uri    TEXT NOT NULL,
    bytes          BIGINT,
    sha256         VARCHAR(64) NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    tool_version   VARCHAR(64)
);

CREATE INDEX IF NOT EXISTS idx_artifacts_source_item ON artifacts(source_item_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at);

CREATE TABLE IF NOT EXISTS normalized_texts (
    id                       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    source_item_id           UUID NOT NULL UNIQUE REFERENCES source_items(id),
    canonical_source_item_id UUID REFERENCES source_items(id),
    text_hash                VARCHAR(64) NOT NULL,
    normalized_text          TEXT NOT NULL,
    created_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_normalized_texts_hash ON normalized_texts(text_hash);

CREATE TABLE IF NOT EXISTS events (
    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title            TEXT NOT NULL,
    date_key         VARCHAR(10) NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    importance_score DOUBLE PRECISION,
    tags             JSONB
);

CREATE INDEX IF NOT EXISTS idx_events_date_key ON events(date_key);

CREATE TABLE IF NOT EXISTS event_memberships (
    event_id       UUID NOT NULL REFERENCES events(id),
    source_item_id UUID NOT NULL UNIQUE REFERENCES source_items(id),
    confidence     DOUBLE PRECISION,
    PRIMARY KEY (event_id, source_item_id)
);

CREATE TABLE IF NOT EXISTS claims (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    event_id        UUID NOT NULL REFERENCES events(id),
    normalized_text TEXT NOT NULL,
    claim_type      VARCHAR(32) NOT NULL,
    entities        JSONB,
    numeric_fields  JSONB,
    UNIQUE (event_id, normalized_text, claim_type)
);

CREATE TABLE IF NOT EXISTS claim_assertions (
    id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    claim_id       UUID NOT NULL REFERENCES claims(id),
    source_item_id UUID NOT NULL REFERENCES source_items(id),
    extracted_span VARCHAR(64),
    excerpt        TEXT,
    polarity       VARCHAR(16) NOT NULL DEFAULT 'neutral',
    assertion_time TIMESTAMPTZ,
    UNIQUE (claim_id, source_item_id)
);

CREATE TABLE IF NOT EXISTS assessments (
    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    claim_id         UUID NOT NULL REFERENCES claims(id),
    model_version    VARCHAR(64),
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    status           VARCHAR(32) NOT NULL,
    score            DOUBLE PRECISION,
    rationale        JSONB,
    computed_signals JSONB
);

CREATE INDEX IF NOT EXISTS idx_assessments_claim ON assessments(claim_id);
CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);

CREATE TABLE IF NOT EXISTS transparency_log_entries (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    previous_root VARCHAR(128),
    merkle_root   VARCHAR(128) NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transparency_created_at ON transparency_log_entries(created_at);
`
